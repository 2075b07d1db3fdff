// Package css parses user supplied stylesheets so they could be checked
// against classes generated documents use.
package css

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into rules.
type Parser struct {
	log *zap.Logger
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. The optional source parameter
// identifies what's being parsed (for debug logging).
func (p *Parser) Parse(data []byte, source ...string) *Stylesheet {
	sheet := &Stylesheet{}

	if len(source) > 0 && source[0] != "" {
		p.log.Debug("Parsing CSS", zap.String("source", source[0]), zap.Int("bytes", len(data)))
	}

	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	p.parseBlock(parser, sheet, "")
	return sheet
}

// parseBlock consumes rules until end of input or end of enclosing @media.
func (p *Parser) parseBlock(parser *css.Parser, sheet *Stylesheet, media string) {
	var pending []string
	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("parse error: %v", err))
				p.log.Debug("CSS parse error", zap.Error(err))
			}
			return

		case css.EndAtRuleGrammar:
			if media != "" {
				return
			}

		case css.BeginAtRuleGrammar:
			atRule := strings.ToLower(string(data))
			if atRule == "@media" {
				query := strings.TrimSpace(tokensString(parser.Values()))
				p.parseBlock(parser, sheet, query)
				continue
			}
			if atRule != "@font-face" && atRule != "@page" {
				sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("unsupported at-rule %s ignored", atRule))
			}
			p.skipAtRuleBlock(parser)
			p.log.Debug("Skipping @-rule", zap.String("rule", atRule))

		case css.AtRuleGrammar:
			atRule := strings.ToLower(string(data))
			switch atRule {
			case "@import":
				if url := extractImportURL(parser.Values()); url != "" {
					sheet.Imports = append(sheet.Imports, url)
					sheet.Warnings = append(sheet.Warnings, fmt.Sprintf("imported stylesheet %q is not embedded", url))
				}
			case "@charset":
			default:
				p.log.Debug("Skipping @-rule", zap.String("rule", atRule))
			}

		case css.QualifiedRuleGrammar:
			// selector group continues, ruleset starts with the last one
			pending = append(pending, p.parseSelectors(data, parser.Values())...)

		case css.BeginRulesetGrammar:
			selectors := append(pending, p.parseSelectors(data, parser.Values())...)
			pending = nil
			sheet.Rules = append(sheet.Rules, Rule{
				Selectors:  selectors,
				Properties: p.parseDeclarations(parser),
				Media:      media,
			})
		}
	}
}

// extractImportURL extracts the URL from @import tokens.
// Handles: @import "url"; @import url("url"); @import url(url);
func extractImportURL(tokens []css.Token) string {
	for _, t := range tokens {
		switch t.TokenType {
		case css.StringToken:
			return unquote(string(t.Data))
		case css.URLToken:
			s := strings.TrimSuffix(strings.TrimPrefix(string(t.Data), "url("), ")")
			return unquote(s)
		}
	}
	return ""
}

func tokensString(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}

// parseSelectors splits grouped selector.
func (p *Parser) parseSelectors(data []byte, values []css.Token) []string {
	selectorStr := string(data) + tokensString(values)

	var selectors []string
	for s := range strings.SplitSeq(selectorStr, ",") {
		s = strings.Trim(s, " \t\r\n{")
		if s != "" {
			selectors = append(selectors, s)
		}
	}
	return selectors
}

// parseDeclarations parses property declarations until EndRulesetGrammar.
func (p *Parser) parseDeclarations(parser *css.Parser) map[string]string {
	props := make(map[string]string)

	for {
		gt, _, data := parser.Next()

		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return props

		case css.DeclarationGrammar:
			if values := parser.Values(); len(values) > 0 {
				props[strings.ToLower(string(data))] = propertyValue(values)
			}

		case css.CustomPropertyGrammar:
			continue
		}
	}
}

// propertyValue joins value tokens collapsing whitespace.
func propertyValue(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

// skipAtRuleBlock skips tokens until the matching end of an @-rule block.
func (p *Parser) skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// unquote removes surrounding quotes from a string.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') ||
		(s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}
