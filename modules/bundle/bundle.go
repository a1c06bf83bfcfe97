package bundle

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/lkarlslund/stixgraph/modules/stix"
	"github.com/lkarlslund/stixgraph/modules/ui"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

const (
	Suffix           = ".json"
	CompressedSuffix = ".lz4"
)

var ErrNotABundle = errors.New("document is not a STIX bundle")

// Bundle is the STIX envelope, objects are decoded one by one afterwards
type Bundle struct {
	Type        string            `json:"type"`
	ID          stix.Id           `json:"id"`
	SpecVersion string            `json:"spec_version,omitempty"`
	Objects     []json.RawMessage `json:"objects"`
}

type Result struct {
	ID      stix.Id
	Objects []stix.Object
	// lenient decoding collects failing objects here instead of giving up
	Failed []error
}

// Decode reads one bundle. With strict set, the first object that fails to decode
// fails the whole bundle.
func Decode(r io.Reader, strict bool) (*Result, error) {
	var b Bundle
	if err := sonic.ConfigDefault.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Wrap(err, "decoding bundle envelope")
	}
	if b.Type != stix.TypeBundle {
		return nil, errors.Wrapf(ErrNotABundle, "type is %q", b.Type)
	}

	result := &Result{
		ID:      b.ID,
		Objects: make([]stix.Object, 0, len(b.Objects)),
	}
	for i, raw := range b.Objects {
		o, err := stix.Decode(raw)
		if err != nil {
			err = errors.Wrapf(err, "object %d (%v)", i, stix.PeekType(raw))
			if strict {
				return nil, err
			}
			ui.Warn().Str("bundle", b.ID.String()).Str("type", stix.PeekType(raw)).Msgf("Skipping object: %v", err)
			result.Failed = append(result.Failed, err)
			continue
		}
		result.Objects = append(result.Objects, o)
	}
	return result, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Open returns a reader for a bundle file, transparently decompressing .lz4 files
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, CompressedSuffix) {
		return readCloser{lz4.NewReader(f), f}, nil
	}
	return f, nil
}

func DecodeFile(path string, strict bool) (*Result, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	result, err := Decode(r, strict)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %v", path)
	}
	return result, nil
}

// Encode writes objects as a bundle with the given id, or a fresh one if id is empty
func Encode(w io.Writer, id stix.Id, objects []stix.Object) error {
	if id.IsZero() {
		id = stix.NewId(stix.TypeBundle)
	}
	b := Bundle{
		Type:    stix.TypeBundle,
		ID:      id,
		Objects: make([]json.RawMessage, 0, len(objects)),
	}
	for _, o := range objects {
		raw, err := stix.Encode(o)
		if err != nil {
			return errors.Wrapf(err, "encoding %v", o.Common().ID)
		}
		b.Objects = append(b.Objects, raw)
	}
	return sonic.ConfigDefault.NewEncoder(w).Encode(b)
}

// WriteFile encodes objects to path, compressing when path ends in .lz4
func WriteFile(path string, id stix.Id, objects []stix.Object) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if !strings.HasSuffix(path, CompressedSuffix) {
		return Encode(f, id, objects)
	}

	lw := lz4.NewWriter(f)
	err = lw.Apply(
		lz4.BlockChecksumOption(true),
		lz4.ChecksumOption(true),
		lz4.CompressionLevelOption(lz4.Level9),
	)
	if err != nil {
		return err
	}
	if err = Encode(lw, id, objects); err != nil {
		return err
	}
	return lw.Close()
}
