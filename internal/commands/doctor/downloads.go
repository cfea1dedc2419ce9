package doctor

import (
	"context"
	"fmt"
	"os"

	"github.com/hay-kot/morph/internal/core/download"
)

// DanglingDownloadsCheck detects download records whose file no longer
// exists. Such records are hidden from listings but stay in the database.
type DanglingDownloadsCheck struct {
	store download.Store
	fix   bool
}

// NewDanglingDownloadsCheck creates a new dangling downloads check.
// If fix is true, dangling records are deleted.
func NewDanglingDownloadsCheck(store download.Store, fix bool) *DanglingDownloadsCheck {
	return &DanglingDownloadsCheck{store: store, fix: fix}
}

func (c *DanglingDownloadsCheck) Name() string {
	return "Downloads"
}

func (c *DanglingDownloadsCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	downloads, err := c.store.List(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "List downloads",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	}

	var dangling []download.Download
	for _, d := range downloads {
		if d.Path == "" {
			dangling = append(dangling, d)
			continue
		}
		if _, err := os.Stat(d.Path); os.IsNotExist(err) {
			dangling = append(dangling, d)
		}
	}

	if len(dangling) == 0 {
		result.Items = append(result.Items, CheckItem{
			Label:  "No dangling records",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d downloads on disk", len(downloads)),
		})
		return result
	}

	for _, d := range dangling {
		detail := "file missing: " + d.Path
		if d.Path == "" {
			detail = "no file recorded"
		}

		if !c.fix {
			result.Items = append(result.Items, CheckItem{
				Label:   d.ID,
				Status:  StatusWarn,
				Detail:  detail,
				Fixable: true,
			})
			continue
		}

		if err := c.store.Delete(ctx, d.ID); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  d.ID,
				Status: StatusFail,
				Detail: fmt.Sprintf("failed to delete: %v", err),
			})
			continue
		}
		result.Items = append(result.Items, CheckItem{
			Label:  d.ID,
			Status: StatusPass,
			Detail: "deleted dangling record",
		})
	}

	return result
}
