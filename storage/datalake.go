package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"
)

var pageNumRegexp = regexp.MustCompile(`_page_(\d+)\.html$`)

// DataLake stores fetched result pages as
// <root>/<keyword>/<date>/data_<keyword>_<date>_page_<n>.html.
type DataLake struct {
	Root string
}

// NewDataLake returns a DataLake rooted at root.
func NewDataLake(root string) *DataLake {
	return &DataLake{Root: root}
}

// Dir is the folder holding one keyword's pages for one capture date.
func (d *DataLake) Dir(keyword string, date time.Time) string {
	return filepath.Join(d.Root, keyword, date.Format(DateLayout))
}

// PagePath is where page n of keyword's capture on date lives.
func (d *DataLake) PagePath(keyword string, date time.Time, page int) string {
	day := date.Format(DateLayout)
	return filepath.Join(d.Dir(keyword, date),
		fmt.Sprintf("data_%s_%s_page_%d.html", keyword, day, page))
}

// WritePage stores one page body, creating directories as needed.
func (d *DataLake) WritePage(keyword string, date time.Time, page int, body []byte) (string, error) {
	if err := os.MkdirAll(d.Dir(keyword, date), 0755); err != nil {
		return "", fmt.Errorf("datalake: create dir: %w", err)
	}
	path := d.PagePath(keyword, date, page)
	if err := os.WriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("datalake: write %q: %w", path, err)
	}
	return path, nil
}

// Pages lists the stored pages for keyword on date in page order.
// A missing capture is not an error: it yields no pages.
func (d *DataLake) Pages(keyword string, date time.Time) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(d.Dir(keyword, date), "*.html"))
	if err != nil {
		return nil, fmt.Errorf("datalake: glob: %w", err)
	}
	sort.SliceStable(paths, func(i, j int) bool {
		return pageNumber(paths[i]) < pageNumber(paths[j])
	})
	return paths, nil
}

func pageNumber(path string) int {
	m := pageNumRegexp.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}
