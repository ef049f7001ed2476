// Package addrbook loads the contract addresses deployed to a network from
// compound-config/networks/<network>.json and exposes them under canonical
// contract names.
//
// A missing document is reported as [ErrNotFound] and a malformed one as
// [ErrParse]; callers that only want prior deployments when they exist use
// [Loader.LoadOrEmpty].
package addrbook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("address book not found")
	ErrParse    = errors.New("address book is not valid")
)

const contractsKey = "Contracts"

// Book maps canonical contract names to deployed addresses on one network.
type Book map[string]string

// Address returns the deployed address of a contract.
func (b Book) Address(name string) (common.Address, bool) {
	addr, ok := b[name]
	if !ok || !common.IsHexAddress(addr) {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// Names returns the contract names in the book, sorted.
func (b Book) Names() []string {
	res := make([]string, 0, len(b))
	for name := range b {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

type Loader struct {
	Dir     string
	Renames Map
	log     *zap.SugaredLogger
}

type Option func(*Loader)

// WithRenames adds entries on top of the built-in rename table.
func WithRenames(m Map) Option {
	return func(l *Loader) {
		l.Renames = l.Renames.Merge(m)
	}
}

func WithLogger(log *zap.SugaredLogger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader reads network documents from <workdir>/compound-config/networks.
func NewLoader(workdir string, opts ...Option) *Loader {
	l := &Loader{
		Dir:     filepath.Join(workdir, "compound-config", "networks"),
		Renames: DefaultRenames(),
		log:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path is the document holding the addresses of network.
func (l *Loader) Path(network string) string {
	return filepath.Join(l.Dir, network+".json")
}

// Load reads the network document and renames every contract to its
// canonical name. When two stored names map to the same canonical name the
// one appearing later in the document wins.
func (l *Loader) Load(network string) (Book, error) {
	path := l.Path(network)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("network '%s': %w at %s", network, ErrNotFound, path)
		}
		return nil, fmt.Errorf("read address book %s: %w", path, err)
	}

	contracts, err := decodeContracts(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %s", path, ErrParse, err)
	}

	book := Book{}
	for _, c := range contracts {
		if c.skipped {
			l.log.Debugw("skipping contract entry that is not an address string",
				"network", network, "name", c.name)
			continue
		}
		name := l.Renames.Rename(c.name)
		if prev, found := book[name]; found {
			l.log.Debugw("contract name collision, later entry wins",
				"network", network, "name", name, "dropped", prev, "kept", c.address)
		}
		book[name] = c.address
	}
	return book, nil
}

// LoadOrEmpty is Load, except that a missing document yields an empty book.
func (l *Loader) LoadOrEmpty(network string) (Book, error) {
	book, err := l.Load(network)
	if errors.Is(err, ErrNotFound) {
		return Book{}, nil
	}
	return book, err
}

type entry struct {
	name    string
	address string
	skipped bool // value was valid JSON but not a string
}

// decodeContracts extracts the Contracts object, keeping document order.
func decodeContracts(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var contracts []entry
	for dec.More() {
		key, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		if key != contractsKey {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}
		if contracts, err = decodeEntries(dec); err != nil {
			return nil, fmt.Errorf("%s: %w", contractsKey, err)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after the document")
	}
	return contracts, nil
}

func decodeEntries(dec *json.Decoder) ([]entry, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, got %v", tok)
	}

	res := []entry{}
	for dec.More() {
		name, err := objectKey(dec)
		if err != nil {
			return nil, err
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		var address string
		if bytes.Equal(raw, []byte("null")) || json.Unmarshal(raw, &address) != nil {
			res = append(res, entry{name: name, skipped: true})
			continue
		}
		res = append(res, entry{name: name, address: address})
	}
	return res, expectDelim(dec, '}')
}

func objectKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected an object key, got %v", tok)
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %s, got %v", want, tok)
	}
	return nil
}
