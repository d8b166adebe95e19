package experiment

import (
	"os"
	"path/filepath"
	"strings"
)

var mlExtensions = map[string]bool{
	".py":    true,
	".ipynb": true,
	".yml":   true,
	".yaml":  true,
	".json":  true,
}

var mlNameKeywords = []string{"model", "train", "experiment", "config", "data", "pipeline"}

var mlContentIndicators = []string{
	"train", "fit", "epoch", "loss", "accuracy", "model.save",
	"torch.save", "tf.keras", "sklearn", "wandb", "mlflow",
}

// configPatterns are globbed in the working directory and hashed for
// versioning.
var configPatterns = []string{"config*.yaml", "config*.yml", "config*.json", "experiment*.yaml"}

// DetectMLFiles returns the files that look ML related by extension or
// by a keyword in the file name.
func DetectMLFiles(files []string) []string {
	mlFiles := []string{}
	for _, f := range files {
		if mlExtensions[strings.ToLower(filepath.Ext(f))] {
			mlFiles = append(mlFiles, f)
			continue
		}
		name := strings.ToLower(filepath.Base(f))
		for _, kw := range mlNameKeywords {
			if strings.Contains(name, kw) {
				mlFiles = append(mlFiles, f)
				break
			}
		}
	}
	return mlFiles
}

// IsMLSession reports whether any readable file mentions a training
// indicator. Unreadable files are ignored.
func IsMLSession(files []string) bool {
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		content := strings.ToLower(string(data))
		for _, ind := range mlContentIndicators {
			if strings.Contains(content, ind) {
				return true
			}
		}
	}
	return false
}

// FindConfigFiles globs the experiment configuration patterns in dir and
// returns paths relative to dir.
func FindConfigFiles(dir string) []string {
	var found []string
	for _, pattern := range configPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, m := range matches {
			if rel, err := filepath.Rel(dir, m); err == nil {
				found = append(found, rel)
			} else {
				found = append(found, m)
			}
		}
	}
	return found
}
