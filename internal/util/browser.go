package util

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommands 按优先级返回打开 url 的候选命令
func browserCommands(goos, url string) [][]string {
	switch goos {
	case "windows":
		// rundll32 比 cmd /c start 更稳定
		return [][]string{
			{"rundll32", "url.dll,FileProtocolHandler", url},
			{"explorer", url},
		}
	case "darwin":
		return [][]string{{"open", url}}
	default:
		cmds := [][]string{{"xdg-open", url}}
		for _, b := range []string{"google-chrome", "firefox", "chromium-browser", "sensible-browser"} {
			cmds = append(cmds, []string{b, url})
		}
		return cmds
	}
}

// OpenBrowser 打开默认浏览器，依次尝试候选命令
func OpenBrowser(url string) error {
	var err error
	for _, args := range browserCommands(runtime.GOOS, url) {
		if err = exec.Command(args[0], args[1:]...).Start(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("open browser: %w", err)
}

// LocalURL 本机访问地址
func LocalURL(port int) string {
	return fmt.Sprintf("http://localhost:%d", port)
}
