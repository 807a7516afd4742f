package precompute

import (
	"encoding/json"
	"os"

	"github.com/poiesic/coursesearch/core"
)

func writeCourses(path string, courses []core.Course) error {
	b, err := json.Marshal(courses)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
