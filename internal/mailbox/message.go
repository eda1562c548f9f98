package mailbox

import (
	"bytes"
	"io"
	"strings"

	"fersal/internal/extract"

	"github.com/emersion/go-message"
	"github.com/rs/zerolog"
)

// collectParts parses a raw RFC 822 message and flattens its MIME tree into
// content parts. Transfer encoding is undone here; charset conversion is left
// to the extraction layer, which carries its own fallback cascade, so part
// bytes stay in their declared charset.
func collectParts(raw []byte, logger zerolog.Logger) []extract.Part {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		logger.Warn().Err(err).Msg("unparsable message, treating body as plain text")
		return []extract.Part{{MediaType: "text/plain", Data: raw}}
	}

	var parts []extract.Part
	walkEntity(entity, &parts, logger)
	return parts
}

// walkEntity descends into multipart containers and appends every leaf part.
func walkEntity(entity *message.Entity, parts *[]extract.Part, logger zerolog.Logger) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return
			}
			if err != nil && !message.IsUnknownCharset(err) {
				logger.Warn().Err(err).Msg("broken multipart, remaining parts skipped")
				return
			}
			walkEntity(part, parts, logger)
		}
	}

	mediaType, params, err := entity.Header.ContentType()
	if err != nil {
		mediaType = "text/plain"
	}
	mediaType = strings.ToLower(mediaType)

	// Attachments and inline images carry no voucher text.
	if !strings.HasPrefix(mediaType, "text/") {
		return
	}

	data, err := io.ReadAll(entity.Body)
	if err != nil {
		logger.Warn().Err(err).Str("media_type", mediaType).Msg("failed to read part body, skipped")
		return
	}

	*parts = append(*parts, extract.Part{
		MediaType: mediaType,
		Charset:   params["charset"],
		Data:      data,
	})
}
