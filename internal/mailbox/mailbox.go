// Package mailbox implements an ingestion source backed by an IMAP account.
// A scan fetches the unread messages of the configured folder; messages that
// yield a voucher are flagged seen so later scans skip them, everything else
// is left unread.
package mailbox

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"fersal/internal/config"
	"fersal/internal/extract"
	"fersal/internal/ingest"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"
)

// Source pulls raw messages over IMAP. The connection is opened lazily on the
// first NextBatch and stays up so MarkConsumed can flag messages on the same
// session; Close ends it.
type Source struct {
	cfg    config.MailConfig
	logger zerolog.Logger
	client *imapclient.Client
}

// NewSource creates an IMAP-backed source.
func NewSource(cfg config.MailConfig, logger zerolog.Logger) *Source {
	return &Source{
		cfg:    cfg,
		logger: logger.With().Str("source", "email-scan").Logger(),
	}
}

// Name identifies this source in logs and stored vouchers.
func (s *Source) Name() string { return "email-scan" }

// NextBatch fetches every unread message in the configured folder.
func (s *Source) NextBatch(ctx context.Context) ([]ingest.RawItem, error) {
	if err := s.connect(); err != nil {
		return nil, err
	}

	searchData, err := s.client.UIDSearch(&imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to search for unread messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		s.logger.Debug().Msg("no unread messages")
		return nil, nil
	}

	section := &imap.FetchItemBodySection{}
	messages, err := s.client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{section},
	}).Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	items := make([]ingest.RawItem, 0, len(messages))
	for _, msg := range messages {
		body := msg.FindBodySection(section)
		if body == nil {
			s.logger.Warn().Uint32("uid", uint32(msg.UID)).Msg("message fetched without body, skipped")
			continue
		}
		items = append(items, &rawMessage{
			source:   s,
			uid:      msg.UID,
			metadata: envelopeMetadata(msg.Envelope),
			parts:    collectParts(body, s.logger),
		})
	}

	s.logger.Info().Int("messages", len(items)).Msg("unread messages fetched")
	return items, nil
}

// connect dials, authenticates and selects the folder. A no-op when the
// session is already up.
func (s *Source) connect() error {
	if s.client != nil {
		return nil
	}

	client, err := imapclient.DialTLS(s.cfg.ServerAddress(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.cfg.ServerAddress(), err)
	}

	if err := client.Login(s.cfg.Address, s.cfg.Password).Wait(); err != nil {
		client.Close()
		return fmt.Errorf("failed to authenticate as %s: %w", s.cfg.Address, err)
	}

	if _, err := client.Select(s.cfg.Mailbox, nil).Wait(); err != nil {
		client.Close()
		return fmt.Errorf("failed to select folder %s: %w", s.cfg.Mailbox, err)
	}

	s.logger.Debug().Str("folder", s.cfg.Mailbox).Msg("imap session established")
	s.client = client
	return nil
}

// markSeen flags one message seen so the next scan's unread search skips it.
func (s *Source) markSeen(uid imap.UID) error {
	if s.client == nil {
		return fmt.Errorf("imap session is not open")
	}

	err := s.client.Store(imap.UIDSetNum(uid), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil).Close()
	if err != nil {
		return fmt.Errorf("failed to flag message seen: %w", err)
	}
	return nil
}

// Close logs out and drops the connection. Safe to call when never connected.
func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	client := s.client
	s.client = nil

	if err := client.Logout().Wait(); err != nil {
		client.Close()
		return fmt.Errorf("failed to log out: %w", err)
	}
	return client.Close()
}

// rawMessage adapts one fetched message to the ingestion item contract.
type rawMessage struct {
	source   *Source
	uid      imap.UID
	metadata string
	parts    []extract.Part
}

func (m *rawMessage) Metadata() string      { return m.metadata }
func (m *rawMessage) Parts() []extract.Part { return m.parts }

func (m *rawMessage) MarkConsumed(context.Context) error {
	return m.source.markSeen(m.uid)
}

// envelopeMetadata joins the decoded subject and sender fields. Provenance
// matching runs over this string, so the sender address matters as much as
// the subject.
func envelopeMetadata(env *imap.Envelope) string {
	if env == nil {
		return ""
	}

	fields := []string{decodeHeader(env.Subject)}
	for _, from := range env.From {
		if from.Name != "" {
			fields = append(fields, decodeHeader(from.Name))
		}
		fields = append(fields, from.Addr())
	}
	return strings.Join(fields, " ")
}

// decodeHeader resolves RFC 2047 encoded words; Hebrew subjects usually
// arrive that way. Undecodable input is kept as is.
func decodeHeader(raw string) string {
	decoder := mime.WordDecoder{}
	decoded, err := decoder.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}
