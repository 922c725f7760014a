package v1

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/cutoff"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/service/excel"
	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/store"
)

// RulesRequest 批量写入航线规则
type RulesRequest struct {
	Rules []model.ServiceCutoffRule `json:"rules"`
}

// checkRule 校验规则中的星期与时刻文本
func checkRule(r model.ServiceCutoffRule) error {
	if strings.TrimSpace(r.ServiceName) == "" {
		return errors.New("航线名称不能为空")
	}
	for _, day := range []string{r.CYWeekday, r.SIWeekday} {
		if strings.TrimSpace(day) == "" {
			continue
		}
		if _, err := cutoff.ParseWeekday(day); err != nil {
			return fmt.Errorf("%s: %w", r.ServiceName, err)
		}
	}
	for _, clock := range []string{r.CYTime, r.SITime} {
		if strings.TrimSpace(clock) == "" {
			continue
		}
		if _, err := model.ParseClock(clock); err != nil {
			return fmt.Errorf("%s: %w", r.ServiceName, err)
		}
	}
	if !r.SameWeekday.Valid() {
		return fmt.Errorf("%s: unknown same weekday policy %q", r.ServiceName, r.SameWeekday)
	}
	return nil
}

// ListRules 航线截关规则列表
// GET /api/v1/rules
func (h *Handler) ListRules(c *gin.Context) {
	rules, err := h.store.ListRules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取航线规则失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// UpsertRules 批量写入航线规则（同名覆盖）
// PUT /api/v1/rules
func (h *Handler) UpsertRules(c *gin.Context) {
	var req RulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据: " + err.Error()})
		return
	}
	for _, r := range req.Rules {
		if err := checkRule(r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.store.UpsertRules(req.Rules); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存航线规则失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(req.Rules)})
}

// DeleteRule 删除航线规则
// DELETE /api/v1/rules/:service
func (h *Handler) DeleteRule(c *gin.Context) {
	err := h.store.DeleteRule(c.Param("service"))
	switch {
	case errors.Is(err, store.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "航线规则不存在"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除航线规则失败"})
	default:
		c.JSON(http.StatusOK, gin.H{"deleted": c.Param("service")})
	}
}

// ImportRules 从 xlsx 导入航线规则
// POST /api/v1/rules/import
func (h *Handler) ImportRules(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败"})
		return
	}
	defer f.Close()

	wb, err := excelize.OpenReader(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无法识别的 Excel 文件"})
		return
	}
	defer wb.Close()

	rules, err := excel.ReadRuleTable(wb)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, r := range rules {
		if err := checkRule(r); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.store.UpsertRules(rules); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存航线规则失败: " + err.Error()})
		return
	}
	h.log.Infof("rules: imported %d rules from %s", len(rules), fh.Filename)
	c.JSON(http.StatusOK, gin.H{"updated": len(rules)})
}

// ExportRules 导出航线规则表
// GET /api/v1/rules/export
func (h *Handler) ExportRules(c *gin.Context) {
	rules, err := h.store.ListRules()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取航线规则失败"})
		return
	}
	f, err := excel.RuleTableWorkbook(rules)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成规则表失败"})
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="service_cutoff_rules.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	if err := f.Write(c.Writer); err != nil {
		h.log.Errorf("write rules workbook: %v", err)
	}
}
