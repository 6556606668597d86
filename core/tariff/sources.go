package tariff

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"grd-pricing/internal/errors"
)

// sourceState is an immutable snapshot of the configured sources. Swapped as
// a whole so in-flight resolutions never observe a half-updated pair.
type sourceState struct {
	primary    Repository
	attachment Repository
}

// Sources arbitrates between the primary (persisted) tariff source and the
// attachment source. It is an explicitly-owned configuration object: hold one
// per process and inject it into the resolution engine.
type Sources struct {
	mu    sync.Mutex // serializes Configure/Reset
	state atomic.Pointer[sourceState]

	defaultPaths []string
	log          *zap.Logger
}

// ConfigureOptions replaces source handles selectively. Zero-valued fields
// leave the current handle untouched; ClearPrimary distinguishes "explicitly
// disabled" from "not provided".
type ConfigureOptions struct {
	// Primary replaces the primary source handle.
	Primary Repository

	// ClearPrimary disables the primary source.
	ClearPrimary bool

	// Attachment replaces the attachment source handle directly.
	Attachment Repository

	// AttachmentPath replaces the attachment source with one backed by the
	// given file (an empty stub when the file does not exist).
	AttachmentPath string
}

// NewSources creates an arbitration policy. defaultPaths are the candidate
// attachment locations probed by Reset, in order. The attachment handle is
// initialized as if Reset had been called.
func NewSources(defaultPaths []string, log *zap.Logger) *Sources {
	s := &Sources{defaultPaths: defaultPaths, log: log}
	s.state.Store(&sourceState{attachment: s.defaultAttachment()})
	return s
}

// Configure replaces source handles per opts. The swap is a single atomic
// reference replacement.
func (s *Sources) Configure(opts ConfigureOptions) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.state.Load()
	next := &sourceState{primary: cur.primary, attachment: cur.attachment}

	switch {
	case opts.ClearPrimary:
		next.primary = nil
	case opts.Primary != nil:
		next.primary = opts.Primary
	}

	switch {
	case opts.Attachment != nil:
		next.attachment = opts.Attachment
	case opts.AttachmentPath != "":
		next.attachment = s.attachmentFor(opts.AttachmentPath)
	}

	s.state.Store(next)
}

// Reset clears the primary source and re-derives the attachment source from
// the first existing default path, or an empty stub when none exists.
func (s *Sources) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Store(&sourceState{attachment: s.defaultAttachment()})
}

// AttachmentFilename returns the current attachment file name, if any.
func (s *Sources) AttachmentFilename() string {
	if fn, ok := s.state.Load().attachment.(Filenamer); ok {
		return fn.Filename()
	}
	return ""
}

// Resolve returns the contract data honoring the source preference, together
// with the source kind that answered.
func (s *Sources) Resolve(ctx context.Context, contractID string, pref SourcePreference) (*ContractTariff, SourceKind, error) {
	st := s.state.Load()

	if st.primary == nil && isStub(st.attachment) {
		return nil, "", errors.TariffSourceUnavailable()
	}

	if pref != PreferAttachmentOnly && st.primary != nil {
		data, err := st.primary.FindByContractID(ctx, contractID)
		if err != nil {
			return nil, "", errors.Internal("primary tariff source lookup failed", err)
		}
		if data != nil {
			return data, SourcePrimary, nil
		}
	}

	if pref != PreferPrimaryOnly && st.attachment != nil {
		data, err := st.attachment.FindByContractID(ctx, contractID)
		if err != nil {
			return nil, "", errors.Internal("attachment tariff source lookup failed", err)
		}
		if data != nil {
			return data, SourceAttachment, nil
		}
	}

	return nil, "", errors.ContractUnavailable(contractID)
}

func (s *Sources) defaultAttachment() Repository {
	for _, path := range s.defaultPaths {
		if _, err := os.Stat(path); err == nil {
			return NewAttachmentSource(path, s.log)
		}
	}
	return EmptySource{}
}

func (s *Sources) attachmentFor(path string) Repository {
	if _, err := os.Stat(path); err != nil {
		s.log.Warn("attachment file not found, using empty source", zap.String("path", path))
		return EmptySource{}
	}
	return NewAttachmentSource(path, s.log)
}

func isStub(r Repository) bool {
	if r == nil {
		return true
	}
	_, stub := r.(EmptySource)
	return stub
}
