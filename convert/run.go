package convert

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"dphtml/archive"
	"dphtml/common"
	"dphtml/config"
	"dphtml/css"
	"dphtml/document"
	"dphtml/state"
)

// ErrNoInput is returned when command line has no source.
var ErrNoInput = errors.New("no input source has been specified")

const (
	stdinName  = "-"
	stdoutName = "STDOUT"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return ErrNoInput
	}
	dst := cmd.Args().Get(1)
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := applyFlags(cmd, &env.Cfg.Document); err != nil {
		return err
	}
	if err := prepareEnv(env, log); err != nil {
		return err
	}
	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	if cp := cmd.String("force-zip-cp"); len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}

	if src == stdinName {
		log.Info("Processing starting", zap.String("source", "STDIN"), zap.String("destination", dst))
		return processStream(ctx, os.Stdin, dst, log)
	}

	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// applyFlags overrides configuration with values explicitly set on command
// line.
func applyFlags(cmd *cli.Command, doc *config.DocumentConfig) error {
	bools := []struct {
		name string
		dst  *bool
	}{
		{"drama", &doc.Markup.Drama},
		{"yogh", &doc.Markup.Yogh},
		{"long-s", &doc.Markup.LongS},
		{"html-quotes", &doc.Markup.HTMLQuotes},
		{"unnumbered-illustrations", &doc.Numbering.UnnumberedIllustrations},
	}
	for _, b := range bools {
		if cmd.IsSet(b.name) {
			*b.dst = cmd.Bool(b.name)
		}
	}

	ints := []struct {
		name     string
		dst      *int
		positive bool
	}{
		{"front-pages", &doc.Numbering.FrontPages, true},
		{"preface-pages", &doc.Numbering.PrefacePages, true},
		{"volume-pages", &doc.Numbering.VolumePages, true},
		{"page-offset", &doc.Numbering.PageOffset, false},
		{"chapter-offset", &doc.Numbering.ChapterOffset, false},
	}
	for _, i := range ints {
		if !cmd.IsSet(i.name) {
			continue
		}
		v := int(cmd.Int(i.name))
		if i.positive && v < 0 {
			return fmt.Errorf("value of --%s must not be negative: %d", i.name, v)
		}
		*i.dst = v
	}

	if cmd.IsSet("number-pages") {
		doc.Numbering.PageNumbers = common.PageNumberingComment
		if cmd.Bool("number-pages") {
			doc.Numbering.PageNumbers = common.PageNumberingAnchored
		}
	}
	if cmd.IsSet("entities") {
		mode, err := common.ParseEntityMode(cmd.String("entities"))
		if err != nil {
			return fmt.Errorf("bad --entities value: %w", err)
		}
		doc.Markup.Entities = mode
	}
	if cmd.IsSet("input-cp") {
		doc.InputEncoding = cmd.String("input-cp")
	}
	if cmd.IsSet("output-cp") {
		doc.OutputEncoding = cmd.String("output-cp")
	}
	return nil
}

// prepareEnv resolves configured encodings and loads stylesheet.
func prepareEnv(env *state.LocalEnv, log *zap.Logger) error {
	doc := &env.Cfg.Document

	env.InputEncoding = nil
	if len(doc.InputEncoding) > 0 {
		enc, name, err := lookupEncoding(doc.InputEncoding)
		if err != nil {
			return fmt.Errorf("bad input encoding: %w", err)
		}
		env.InputEncoding = enc
		log.Debug("Forcing input encoding", zap.String("charset", name))
	}

	enc, name, err := lookupEncoding(doc.OutputEncoding)
	if err != nil {
		return fmt.Errorf("bad output encoding: %w", err)
	}
	if strings.EqualFold(name, "UTF-8") {
		enc = unicode.UTF8
	}
	env.OutputEncoding, env.OutputCharset = enc, name

	env.Stylesheet = nil
	if len(doc.StylesheetPath) > 0 {
		data, err := os.ReadFile(doc.StylesheetPath)
		if err != nil {
			return fmt.Errorf("unable to read style css from %q: %w", doc.StylesheetPath, err)
		}
		checkStylesheet(data, doc.StylesheetPath, log)
		env.Stylesheet = data
	}
	return nil
}

// checkStylesheet warns about stylesheet problems, it never rejects it.
func checkStylesheet(data []byte, source string, log *zap.Logger) {
	sheet := css.NewParser(log).Parse(data, source)
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet problem", zap.String("stylesheet", source), zap.String("problem", w))
	}
	if missing := sheet.Missing(document.StyleClasses()); len(missing) > 0 {
		log.Warn("Stylesheet does not define classes used by generated documents",
			zap.String("stylesheet", source), zap.Strings("classes", missing))
	}
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if isOutputFile(dst) {
				return fmt.Errorf("destination must be a directory when processing directory (%s)", dst)
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		archived, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if archived {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		text, enc, err := isTextFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if text && len(tail) == 0 {
			// we have transcription, it cannot have tail
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to process file: %w", err)
			}
			defer file.Close()
			return processDocument(ctx, file, enc, filepath.Base(head), dst, log)
		}
		return fmt.Errorf("input was not recognized as text transcription (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding text files and archives and
// processes them. Failed documents do not stop processing, their errors are
// collected and returned together.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	var (
		count  int
		failed error
	)
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = archive.WalkDir(dir, func(path string, _ fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		archived, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if archived {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
				failed = multierr.Append(failed, err)
			}
			return nil
		}

		text, enc, err := isTextFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !text {
			log.Debug("Skipping file, not recognized as transcription or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			failed = multierr.Append(failed, err)
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processDocument(ctx, file, enc, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			failed = multierr.Append(failed, err)
		}
		return nil
	})
	return multierr.Append(err, failed)
}

// processArchive walks all files inside archive, finds text files under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	var (
		count  int
		failed error
	)
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		text, enc, err := isTextInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", archive), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !text {
			log.Debug("Skipping file, not recognized as transcription", zap.String("archive", archive), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		if isOutputFile(dst) && count > 1 {
			return fmt.Errorf("destination must be a directory when archive has several documents (%s)", dst)
		}

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failed = multierr.Append(failed, err)
			return nil
		}
		defer r.Close()

		cp := state.EnvFromContext(ctx).CodePage

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}
		if err := processDocument(ctx, r, enc, filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			failed = multierr.Append(failed, err)
		}
		return nil
	})
	if err == nil && count == 0 && len(pathIn) > 0 {
		return fmt.Errorf("nothing to process in archive under (%s)", pathIn)
	}
	return multierr.Append(err, failed)
}

// processStream converts text coming from r, normally STDIN. Without
// destination result goes to STDOUT.
func processStream(ctx context.Context, r io.Reader, dst string, log *zap.Logger) error {
	br := bufio.NewReaderSize(r, sniffLen)
	head, _ := br.Peek(sniffLen)
	return processDocument(ctx, br, detectUTF(head), "stdin.txt", dst, log)
}

// processDocument converts single transcription. "src" is part of the source
// path (always including file name) relative to the original path. When
// actual file was specified it will be just base file name without a path.
// When looking inside archive or directory it will be relative path inside
// archive or directory (including base file name). "dst" is either the
// destination directory, output file name or empty for STDOUT.
func processDocument(ctx context.Context, r io.Reader, enc srcEncoding, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	id := uuid.NewString()
	outputName := stdoutName

	log.Info("Conversion starting", zap.String("from", src), zap.String("id", id))
	defer func(start time.Time) {
		// one bad document should not stop processing of others
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.String("id", id))
		}
	}(time.Now())

	in, inputCharset := decodeText(r, enc, env.InputEncoding)
	log.Debug("Input decoding", zap.String("charset", inputCharset))

	values := newValues(src, id, env.OutputCharset, time.Now())
	title := values.Name
	if len(env.Cfg.Document.TitleTemplate) > 0 {
		if t, err := expandTemplate(config.TitleTemplateFieldName, env.Cfg.Document.TitleTemplate, values); err != nil {
			log.Warn("Unable to prepare document title", zap.Error(err))
		} else {
			title = strings.TrimSpace(t)
		}
	}

	var out io.Writer = os.Stdout
	if len(dst) > 0 {
		outputName = dst
		if !isOutputFile(dst) {
			outputName = buildOutputPath(values, src, dst, env)
		}
		f, err := createOutput(outputName, env.Overwrite, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Close(); err != nil {
				rerr = multierr.Append(rerr, fmt.Errorf("unable to close output: %w", err))
			}
		}()
		out = f
	}

	w := selectWriter(out, env.OutputEncoding)
	engine := document.NewEngine(documentOptions(&env.Cfg.Document, title, env.OutputCharset, env.Stylesheet), log.With(zap.String("file", src)))
	stats, err := engine.Process(ctx, in, w)
	if err := multierr.Append(err, w.Close()); err != nil {
		return fmt.Errorf("unable to convert (%s): %w", src, err)
	}

	log.Info("Document processed", append([]zap.Field{zap.String("file", src)}, stats.Fields()...)...)
	if problems := stats.Problems(); problems > 0 {
		log.Warn("Markup problems found, see warnings above", zap.String("file", src), zap.Int("problems", problems), zap.Any("kinds", stats.Diagnostics))
	}

	// Store conversion result for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("stats-%s.txt", id), []byte(stats.Dump(src)))
		if outputName != stdoutName {
			env.Rpt.Store(fmt.Sprintf("result-%s%s", id, outputExt), outputName)
		}
	}
	return nil
}

// createOutput creates output file and its directory, existing file is
// replaced only when allowed.
func createOutput(name string, overwrite bool, log *zap.Logger) (*os.File, error) {
	if _, err := os.Stat(name); err == nil {
		if !overwrite {
			return nil, fmt.Errorf("output file already exists: %s", name)
		}
		log.Warn("Overwriting existing file", zap.String("file", name))
		if err = os.Remove(name); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	} else if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, fmt.Errorf("unable to create output directory: %w", err)
	}

	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("unable to create output file: %w", err)
	}
	return f, nil
}
