package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"dphtml/config"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Name       string // source file name without extension
	SourceFile string // source path relative to processed directory or archive
	Dir        string // directory part of SourceFile
	Date       string
	ID         string // unique id of this conversion
	Charset    string // output character set
}

func newValues(src, id, charset string, now time.Time) Values {
	dir := filepath.ToSlash(filepath.Dir(src))
	if dir == "." {
		dir = ""
	}
	return Values{
		Name:       strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceFile: filepath.ToSlash(src),
		Dir:        dir,
		Date:       now.Format("2006-01-02"),
		ID:         id,
		Charset:    charset,
	}
}

func expandTemplate(name config.TemplateFieldName, field string, values Values) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values.Context = string(name)

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
