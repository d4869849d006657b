package tagging

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"

	"github.com/Paidguy/SpotiFLAC-web/internal/constants"
	"github.com/Paidguy/SpotiFLAC-web/internal/domain"
	"github.com/Paidguy/SpotiFLAC-web/internal/storage"
)

// ErrUnsupportedFormat is returned for containers that cannot be tagged.
var ErrUnsupportedFormat = errors.New("unsupported file format")

const vendor = "SpotiFLAC"

// Metadata is the tag set written into a downloaded track.
type Metadata struct {
	Title       string
	Artists     []string
	AlbumArtist string
	Album       string
	Date        string
	Year        int
	TrackNumber int
	DiscNumber  int
	SourceID    string
	Service     string
	Lyrics      string
}

// MetadataFromRequest derives tags from a fetch descriptor. The artist
// string is split on the usual collaboration separators.
func MetadataFromRequest(req domain.FetchRequest) Metadata {
	return Metadata{
		Title:       req.TrackName,
		Artists:     SplitArtists(req.ArtistName),
		AlbumArtist: req.AlbumArtist,
		Album:       req.AlbumName,
		Date:        req.ReleaseDate,
		Year:        storage.ParseYear(req.ReleaseDate),
		TrackNumber: req.Position,
		DiscNumber:  req.DiscNumber,
		SourceID:    req.SourceID,
		Service:     req.Service,
	}
}

// SplitArtists breaks "A, B & C" into its parts.
func SplitArtists(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '&' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TagFile writes metadata tags to the audio file at filePath.
func TagFile(filePath string, md Metadata, coverData []byte) error {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case constants.ExtFLAC:
		return tagFLAC(filePath, md, coverData)
	case constants.ExtMP3:
		return tagMP3(filePath, md, coverData)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// tagFLAC replaces any Vorbis comment and front cover blocks. Audio frames
// are written back untouched.
func tagFLAC(filePath string, md Metadata, coverData []byte) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	kept := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment || block.Type == flac.Picture {
			continue
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	vc := newVorbisComment(md)
	vcBlock := vc.Marshal()
	f.Meta = append(f.Meta, &vcBlock)

	if len(coverData) > 0 {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", coverData, detectMIME(coverData))
		if err != nil {
			return fmt.Errorf("failed to build picture block: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

func newVorbisComment(md Metadata) *flacvorbis.MetaDataBlockVorbisComment {
	vc := flacvorbis.New()
	vc.Vendor = vendor

	addTag := func(name, value string) {
		if value != "" {
			_ = vc.Add(name, value)
		}
	}

	addTag("TITLE", md.Title)

	// Multiple artists get individual ARTIST tags per Vorbis convention.
	for _, a := range md.Artists {
		addTag("ARTIST", a)
	}
	addTag("ALBUMARTIST", md.AlbumArtist)
	addTag("ALBUM", md.Album)

	if md.TrackNumber > 0 {
		addTag("TRACKNUMBER", strconv.Itoa(md.TrackNumber))
	}
	if md.DiscNumber > 0 {
		addTag("DISCNUMBER", strconv.Itoa(md.DiscNumber))
	}
	if md.Date != "" {
		addTag("DATE", md.Date)
	} else if md.Year > 0 {
		addTag("DATE", strconv.Itoa(md.Year))
	}

	addTag("SOURCE_ID", md.SourceID)
	addTag("SOURCE_SERVICE", md.Service)
	addTag("LYRICS", md.Lyrics)

	return vc
}

// tagMP3 writes ID3v2.4 tags to an MP3 file.
func tagMP3(filePath string, md Metadata, coverData []byte) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	if md.Title != "" {
		tag.SetTitle(md.Title)
	}
	if len(md.Artists) > 0 {
		tag.SetArtist(strings.Join(md.Artists, "\x00"))
	}
	if md.Album != "" {
		tag.SetAlbum(md.Album)
	}
	if md.Year > 0 {
		tag.SetYear(strconv.Itoa(md.Year))
	}
	if md.AlbumArtist != "" {
		tag.AddTextFrame(tag.CommonID("Band/Orchestra/Accompaniment"), tag.DefaultEncoding(), md.AlbumArtist)
	}
	if md.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(md.TrackNumber))
	}
	if md.DiscNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Part of a set"), tag.DefaultEncoding(), strconv.Itoa(md.DiscNumber))
	}
	if md.Date != "" {
		tag.AddTextFrame(tag.CommonID("Release time"), tag.DefaultEncoding(), md.Date)
	}
	if md.SourceID != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "SOURCE_ID",
			Value:       md.SourceID,
		})
	}
	if md.Lyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "LRC",
			Lyrics:            md.Lyrics,
		})
	}

	if len(coverData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    detectMIME(coverData),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     coverData,
		})
	}

	return tag.Save()
}

// detectMIME sniffs the image type so PNG covers aren't labelled as image/jpeg.
func detectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	return mime
}

// NormalizeLRC tidies synced lyrics into one "[mm:ss.xx] text" entry per line.
func NormalizeLRC(subtitles string) string {
	var result strings.Builder
	for _, line := range strings.Split(subtitles, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] == '[' {
			if end := strings.IndexByte(line, ']'); end != -1 {
				result.WriteString(line[:end+1])
				text := strings.TrimSpace(line[end+1:])
				if text != "" {
					result.WriteString(" ")
					result.WriteString(text)
				}
				result.WriteString("\n")
				continue
			}
		}
		result.WriteString(line)
		result.WriteString("\n")
	}
	return result.String()
}
