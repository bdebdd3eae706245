// Package catalogimport loads drinks and cocktails catalogs from CSV or XLSX files.
//
// An import runs in three stages: the Parser turns the upload into ordered rows,
// the Normalizer validates each row into an UpsertCommand, and the Executor applies
// the commands in fixed-size batches, one transaction per batch. Row-level problems
// are collected and reported; they never abort the import.
package catalogimport

import (
	"path/filepath"
	"strings"
)

// FileKind is the decoded format of an upload.
type FileKind string

const (
	KindCSV  FileKind = "csv"
	KindXLSX FileKind = "xlsx"
)

// Policy holds the import limits. Zero values fall back to DefaultPolicy.
type Policy struct {
	BatchSize         int
	MaxErrorsReturned int
	MaxRows           int
	AcceptedFileTypes []string
}

func DefaultPolicy() Policy {
	return Policy{
		BatchSize:         100,
		MaxErrorsReturned: 10,
		MaxRows:           2100,
		AcceptedFileTypes: []string{".csv", ".xlsx"},
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.BatchSize <= 0 {
		p.BatchSize = d.BatchSize
	}
	if p.MaxErrorsReturned <= 0 {
		p.MaxErrorsReturned = d.MaxErrorsReturned
	}
	if p.MaxRows <= 0 {
		p.MaxRows = d.MaxRows
	}
	if len(p.AcceptedFileTypes) == 0 {
		p.AcceptedFileTypes = d.AcceptedFileTypes
	}
	return p
}

// KindFor maps an upload filename to its FileKind using the accepted extensions.
func (p Policy) KindFor(filename string) (FileKind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	accepted := false
	for _, a := range p.withDefaults().AcceptedFileTypes {
		if strings.EqualFold(a, ext) {
			accepted = true
			break
		}
	}
	if !accepted {
		return "", ErrUnsupportedFileType
	}
	switch ext {
	case ".csv":
		return KindCSV, nil
	case ".xlsx":
		return KindXLSX, nil
	}
	return "", ErrUnsupportedFileType
}
