package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
)

// PathTemplateData holds the data for path template execution
type PathTemplateData struct {
	Artist      string
	AlbumArtist string
	Album       string
	Disc        string
	Track       string
	Title       string
	Year        int
}

// BuildPath executes the template and returns the relative path (without extension)
func BuildPath(templateStr string, data *PathTemplateData) (string, error) {
	tmpl, err := template.New("filename").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// BuildPathTemplateData creates sanitized template data from a fetch request
func BuildPathTemplateData(req domain.FetchRequest) *PathTemplateData {
	albumArtist := req.AlbumArtist
	if albumArtist == "" {
		albumArtist = req.ArtistName
	}
	album := req.AlbumName
	if album == "" {
		album = "Unknown Album"
	}

	return &PathTemplateData{
		Artist:      Sanitize(req.ArtistName),
		AlbumArtist: Sanitize(albumArtist),
		Album:       Sanitize(album),
		Disc:        FormatNumber(req.DiscNumber),
		Track:       FormatNumber(req.Position),
		Title:       Sanitize(req.TrackName),
		Year:        ParseYear(req.ReleaseDate),
	}
}

// BuildFullPath joins the rendered template under downloadsDir and appends ext.
// The result never escapes downloadsDir.
func BuildFullPath(downloadsDir, templateStr string, data *PathTemplateData, ext string) (string, error) {
	relPath, err := BuildPath(templateStr, data)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Clean(filepath.Join(downloadsDir, relPath+ParseExtension(ext)))
	base := filepath.Clean(downloadsDir)
	if fullPath != base && !strings.HasPrefix(fullPath, base+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes download directory", relPath)
	}
	return fullPath, nil
}

// AssetPath decides where an asset of the request's kind is written.
// Tracks and lyrics follow the filename template; images sit next to them.
func AssetPath(downloadsDir, templateStr string, req domain.FetchRequest, defaultFormat string) (string, error) {
	data := BuildPathTemplateData(req)

	switch req.Kind {
	case domain.KindLyrics:
		return BuildFullPath(downloadsDir, templateStr, data, constants.ExtLRC)
	case domain.KindCover:
		trackPath, err := BuildFullPath(downloadsDir, templateStr, data, "")
		if err != nil {
			return "", err
		}
		return filepath.Join(filepath.Dir(trackPath), "cover"+constants.ExtJPG), nil
	case domain.KindAvatar, domain.KindHeader:
		return filepath.Join(downloadsDir, data.Artist, string(req.Kind)+constants.ExtJPG), nil
	case domain.KindGallery:
		return filepath.Join(downloadsDir, data.Artist, "gallery", "gallery_"+FormatNumber(req.Position)+constants.ExtJPG), nil
	default:
		format := req.Format
		if format == "" {
			format = defaultFormat
		}
		return BuildFullPath(downloadsDir, templateStr, data, strings.ToLower(format))
	}
}

// ParseExtension ensures a non-empty extension starts with a dot
func ParseExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		return "." + ext
	}
	return ext
}

// FormatNumber zero-pads track and disc numbers
func FormatNumber(n int) string {
	return fmt.Sprintf("%02d", n)
}

// ParseYear reads the leading year of a YYYY[-MM-DD] date, 0 when absent.
func ParseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	n, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return n
}
