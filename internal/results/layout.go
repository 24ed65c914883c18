// Package results owns the on-disk layout of a results directory: one
// self-describing case.json per case, a run.json manifest and the full
// results.json table. Any results directory can later serve as a cache.
package results

import (
	"crypto/sha1"
	"encoding/hex"
	"path/filepath"
	"regexp"

	"github.com/sourceplane/liteparam/internal/model"
)

const (
	APIVersion = "liteparam.io/v1"

	CaseFile  = "case.json"
	RunFile   = "run.json"
	TableFile = "results.json"

	maxDirName = 120
)

var safeDirName = regexp.MustCompile(`^[A-Za-z0-9._=,+-]+$`)

// Layout maps cases to directories under a results root
type Layout struct {
	Root string
}

// CaseDir returns the directory holding everything about one case
func (l Layout) CaseDir(c *model.Case) string {
	return filepath.Join(l.Root, CaseDirName(c.Key))
}

// CaseDirName uses the case key itself when it is filesystem-safe, otherwise a hash of it.
// Identity is always read back from case.json, never from the name.
func CaseDirName(key model.CaseKey) string {
	name := string(key)
	if len(name) <= maxDirName && safeDirName.MatchString(name) && name != "." && name != ".." {
		return name
	}
	sum := sha1.Sum([]byte(key))
	return "case-" + hex.EncodeToString(sum[:])[:12]
}
