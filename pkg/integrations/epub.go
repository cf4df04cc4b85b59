package integrations

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-shiori/go-epub"
	"github.com/kerbaras/mdex/pkg/data"
)

// EPubBuilder compiles downloaded chapter directories into a single EPUB.
type EPubBuilder struct {
	outputDir string
	processor *ImageProcessor // nil leaves page images untouched
	workDir   string
}

func NewEPubBuilder(outputDir string) *EPubBuilder {
	return &EPubBuilder{outputDir: outputDir}
}

// WithImageProcessor enables page normalization before packaging.
func (p *EPubBuilder) WithImageProcessor(processor *ImageProcessor) *EPubBuilder {
	p.processor = processor
	return p
}

// Export compiles all downloaded chapters of a manga into a single EPUB file,
// sorted by volume then chapter number, and returns the written path.
func (p *EPubBuilder) Export(manga *data.Manga, chapters []*data.Chapter) (string, error) {
	if len(chapters) == 0 {
		return "", fmt.Errorf("no chapters to compile")
	}

	if err := os.MkdirAll(p.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	sorted := make([]*data.Chapter, len(chapters))
	copy(sorted, chapters)
	sort.Slice(sorted, func(i, j int) bool {
		vi, _ := strconv.ParseFloat(sorted[i].Volume, 64)
		vj, _ := strconv.ParseFloat(sorted[j].Volume, 64)
		if vi != vj {
			return vi < vj
		}
		ni, _ := strconv.ParseFloat(sorted[i].Number, 64)
		nj, _ := strconv.ParseFloat(sorted[j].Number, 64)
		return ni < nj
	})

	e, err := epub.NewEpub(manga.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor("MangaDex")
	if manga.Description != "" {
		e.SetDescription(manga.Description)
	}
	lang := manga.OriginalLanguage
	if lang == "" {
		lang = "en"
	}
	e.SetLang(lang)

	added := 0
	for _, chapter := range sorted {
		if !chapter.Downloaded || chapter.FilePath == "" {
			continue
		}
		if err := p.addChapter(e, chapter); err != nil {
			return "", fmt.Errorf("failed to add chapter %s: %w", chapter.Number, err)
		}
		added++
	}
	if added == 0 {
		return "", fmt.Errorf("no downloaded chapters to compile")
	}

	outputPath := filepath.Join(p.outputDir, sanitizeFilename(manga.Name)+".epub")
	if err := e.Write(outputPath); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}
	return outputPath, nil
}

// addChapter adds one chapter's page images as a section.
func (p *EPubBuilder) addChapter(e *epub.Epub, chapter *data.Chapter) error {
	files, err := os.ReadDir(chapter.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read chapter directory: %w", err)
	}

	var imageFiles []os.DirEntry
	for _, file := range files {
		if !file.IsDir() && isImageFile(file.Name()) {
			imageFiles = append(imageFiles, file)
		}
	}
	if len(imageFiles) == 0 {
		return fmt.Errorf("no images found in chapter directory")
	}

	// Page files are named {1-based index}.{ext}; sort numerically.
	sort.Slice(imageFiles, func(i, j int) bool {
		return pageIndex(imageFiles[i].Name()) < pageIndex(imageFiles[j].Name())
	})

	chapterTitle := fmt.Sprintf("Chapter %s", chapter.Number)
	if chapter.Volume != "" && chapter.Volume != "0" {
		chapterTitle = fmt.Sprintf("Vol. %s, %s", chapter.Volume, chapterTitle)
	}
	if chapter.Title != "" {
		chapterTitle = fmt.Sprintf("%s: %s", chapterTitle, chapter.Title)
	}

	var htmlContent strings.Builder
	htmlContent.WriteString(fmt.Sprintf("<h1>%s</h1>\n", chapterTitle))

	for i, imgFile := range imageFiles {
		imgPath := filepath.Join(chapter.FilePath, imgFile.Name())

		if p.processor != nil {
			imgPath, err = p.processImage(imgPath)
			if err != nil {
				return fmt.Errorf("failed to process image %s: %w", imgFile.Name(), err)
			}
		}

		internalPath, err := e.AddImage(imgPath, "")
		if err != nil {
			return fmt.Errorf("failed to add image %s: %w", imgFile.Name(), err)
		}

		htmlContent.WriteString(fmt.Sprintf(
			`<div class="page"><img src="%s" alt="Page %d" style="width:100%%;height:auto;"/></div>%s`,
			internalPath, i+1, "\n",
		))
	}

	if _, err := e.AddSection(htmlContent.String(), chapterTitle, "", ""); err != nil {
		return fmt.Errorf("failed to add section: %w", err)
	}
	return nil
}

// processImage runs one page through the processor, writing the result to a
// scratch file because the epub library takes paths, not bytes.
func (p *EPubBuilder) processImage(imgPath string) (string, error) {
	raw, err := os.ReadFile(imgPath)
	if err != nil {
		return "", err
	}
	processed, err := p.processor.ProcessImage(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}

	if p.workDir == "" {
		dir, err := os.MkdirTemp("", "mdex-epub-*")
		if err != nil {
			return "", err
		}
		p.workDir = dir
	}
	base := strings.TrimSuffix(filepath.Base(imgPath), filepath.Ext(imgPath))
	out := filepath.Join(p.workDir, fmt.Sprintf("%s_%s.jpg", filepath.Base(filepath.Dir(imgPath)), base))
	if err := os.WriteFile(out, processed, 0644); err != nil {
		return "", err
	}
	return out, nil
}

func pageIndex(filename string) int {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	n, _ := strconv.Atoi(name)
	return n
}

// isImageFile checks if a file has an image extension
func isImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".gif" || ext == ".webp"
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.TrimSpace(result)
	result = strings.Trim(result, ".")
	return result
}
