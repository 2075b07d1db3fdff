package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"dphtml/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	// MarkupConfig controls inline rendering of proofreading markup.
	MarkupConfig struct {
		Drama       bool              `yaml:"drama"`
		Yogh        bool              `yaml:"yogh"`
		LongS       bool              `yaml:"long_s"`
		Entities    common.EntityMode `yaml:"entities" validate:"gte=0,lte=3"`
		HTMLQuotes  bool              `yaml:"html_quotes"`
		MaxTagDepth int               `yaml:"max_tag_depth" validate:"min=1,max=1000"`
	}

	// NumberingConfig controls page, chapter and section anchors.
	NumberingConfig struct {
		PageNumbers             common.PageNumbering `yaml:"page_numbers" validate:"gte=0,lte=1"`
		FrontPages              int                  `yaml:"front_pages" validate:"gte=0"`
		PrefacePages            int                  `yaml:"preface_pages" validate:"gte=0"`
		VolumePages             int                  `yaml:"volume_pages" validate:"gte=0"`
		PageOffset              int                  `yaml:"page_offset"`
		ChapterOffset           int                  `yaml:"chapter_offset"`
		NumberSections          bool                 `yaml:"number_sections"`
		UnnumberedIllustrations bool                 `yaml:"unnumbered_illustrations"`
	}

	DocumentConfig struct {
		TitleTemplate         string          `yaml:"title_template"`
		OutputNameTemplate    string          `yaml:"output_name_template"`
		FileNameTransliterate bool            `yaml:"file_name_transliterate"`
		StylesheetPath        string          `yaml:"stylesheet_path" sanitize:"assure_file_access"`
		InputEncoding         string          `yaml:"input_encoding"`
		OutputEncoding        string          `yaml:"output_encoding" validate:"required"`
		Markup                MarkupConfig    `yaml:"markup"`
		Numbering             NumberingConfig `yaml:"numbering"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputNameTemplateFieldName TemplateFieldName = "output_name_template"
	TitleTemplateFieldName      TemplateFieldName = "title_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputNameTemplateFieldName)),
	gencfg.WithDoNotExpandField(string(TitleTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, fmt.Errorf("failed to sanitize configuration: %w", err)
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("failed to validate configuration: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
