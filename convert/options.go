package convert

import (
	"dphtml/config"
	"dphtml/document"
	"dphtml/markup"
)

// documentOptions translates configuration into engine options.
func documentOptions(cfg *config.DocumentConfig, title, charset string, stylesheet []byte) document.Options {
	return document.Options{
		Markup: markup.Options{
			Drama:       cfg.Markup.Drama,
			Yogh:        cfg.Markup.Yogh,
			LongS:       cfg.Markup.LongS,
			Entities:    cfg.Markup.Entities,
			HTMLQuotes:  cfg.Markup.HTMLQuotes,
			MaxTagDepth: cfg.Markup.MaxTagDepth,
		},
		PageNumbers:             cfg.Numbering.PageNumbers,
		FrontPages:              cfg.Numbering.FrontPages,
		PrefacePages:            cfg.Numbering.PrefacePages,
		VolumePages:             cfg.Numbering.VolumePages,
		PageOffset:              cfg.Numbering.PageOffset,
		ChapterOffset:           cfg.Numbering.ChapterOffset,
		NumberSections:          cfg.Numbering.NumberSections,
		UnnumberedIllustrations: cfg.Numbering.UnnumberedIllustrations,
		Title:                   title,
		Charset:                 charset,
		Stylesheet:              stylesheet,
	}
}
