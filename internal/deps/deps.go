package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external tool winelens can use.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// tessdataDirs lists where Tesseract language data is commonly installed,
// with TESSDATA_PREFIX taking precedence.
func tessdataDirs() []string {
	var dirs []string
	if prefix := strings.TrimSpace(os.Getenv("TESSDATA_PREFIX")); prefix != "" {
		dirs = append(dirs, prefix, filepath.Join(prefix, "tessdata"))
	}
	return append(dirs,
		"/usr/share/tesseract-ocr/5/tessdata",
		"/usr/share/tesseract-ocr/4.00/tessdata",
		"/usr/share/tessdata",
		"/usr/local/share/tessdata",
		"/opt/homebrew/share/tessdata",
	)
}

// CheckTessdata reports whether trained data for each "+"-joined language in
// lang (e.g. "eng+fra") is installed.
func CheckTessdata(lang string) Status {
	status := Status{
		Name:        "Tesseract language data",
		Command:     lang,
		Description: "needed for photo recognition in tesseract builds",
		Optional:    true,
	}
	var missing []string
	for _, code := range strings.Split(lang, "+") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if findTraineddata(code) == "" {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		status.Detail = fmt.Sprintf("no traineddata for %s", strings.Join(missing, ", "))
		return status
	}
	status.Available = true
	return status
}

func findTraineddata(code string) string {
	for _, dir := range tessdataDirs() {
		candidate := filepath.Join(dir, code+".traineddata")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}
