package structure

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	chem "github.com/rmera/boo"

	"github.com/turtacn/poslist/pkg/errors"
)

// BlankChainID stands in for a blank PDB chain column.  It is neither the
// listing delimiter '_' nor a span separator.
const BlankChainID = "-"

// maxLineLength bounds a single PDB record.  Real records are 80 columns.
const maxLineLength = 1 << 16

// Load parses the structure file at path.  If the file name ends with ".gz",
// gzip decompression is used.  Only the first model is kept.
//
// A ParseError is returned if the file cannot be read or yields no atoms.
func Load(path string) (*Structure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.ParseError(path, "cannot open file").WithCause(err)
	}
	defer f.Close()

	var reader io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.ParseError(path, "cannot open gzip stream").WithCause(err)
		}
		defer gz.Close()
		reader = gz
	}

	name := strings.TrimSuffix(filepath.Base(path), ".gz")
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return Read(reader, name)
}

// Read parses PDB records from r.  name is used for the Structure name and
// error messages.
//
// The records of the first model are handed to the gochem PDB reader; the
// resulting molecule is then grouped into chains and residues in file order.
func Read(r io.Reader, name string) (*Structure, error) {
	tmp, n, err := spoolFirstModel(r, name)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp)
	if n == 0 {
		return nil, errors.ParseError(name, "no usable ATOM or HETATM records")
	}

	mol, err := chem.PDBFileRead(tmp)
	if err != nil {
		return nil, errors.ParseError(name, "invalid PDB records").WithCause(err)
	}
	if mol == nil || mol.Len() == 0 || len(mol.Coords) == 0 {
		return nil, errors.ParseError(name, "no usable ATOM or HETATM records")
	}

	b := newBuilder(name)
	coords := mol.Coords[0]
	for i := 0; i < mol.Len(); i++ {
		at := mol.Atom(i)
		v := coords.VecView(i)
		b.addAtom(record{
			serial:  at.ID,
			name:    at.Name,
			resName: at.MolName,
			chain:   at.Chain,
			seqNum:  at.MolID,
			het:     at.Het,
			element: at.Symbol,
			coords:  Coords{X: v.At(0, 0), Y: v.At(0, 1), Z: v.At(0, 2)},
		})
	}
	if b.s.atoms == 0 {
		return nil, errors.ParseError(name, "no usable ATOM or HETATM records")
	}
	return b.s, nil
}

// spoolFirstModel copies the coordinate records of the first model into a
// temporary file and returns its path and the number of atom records kept.
func spoolFirstModel(r io.Reader, name string) (string, int, error) {
	f, err := os.CreateTemp("", "poslist-*.pdb")
	if err != nil {
		return "", 0, errors.IOError(err, "create temporary structure file")
	}
	path := f.Name()
	fail := func(err error, msg string) (string, int, error) {
		f.Close()
		os.Remove(path)
		return "", 0, errors.ParseError(name, msg).WithCause(err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineLength)
	w := bufio.NewWriter(f)
	atoms, models := 0, 0
scan:
	for scanner.Scan() {
		line := scanner.Text()
		switch recordName(line) {
		case "MODEL":
			models++
			if models > 1 {
				break scan
			}
		case "ENDMDL":
			break scan
		case "ATOM", "HETATM":
			atoms++
			if _, err := w.WriteString(line + "\n"); err != nil {
				return fail(err, "spool failed")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fail(err, "read failed")
	}
	if _, err := w.WriteString("END\n"); err != nil {
		return fail(err, "spool failed")
	}
	if err := w.Flush(); err != nil {
		return fail(err, "spool failed")
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", 0, errors.IOError(err, "close temporary structure file")
	}
	return path, atoms, nil
}

func recordName(line string) string {
	if len(line) > 6 {
		line = line[:6]
	}
	return strings.TrimSpace(line)
}

// record is one atom as reported by the reader.
type record struct {
	serial  int
	name    string
	resName string
	chain   string
	seqNum  int
	het     bool
	element string
	coords  Coords
}

type residueKey struct {
	seqNum int
	name   string
	het    bool
}

// builder accumulates atoms into a Structure.  It is discarded once Read
// returns.
type builder struct {
	s        *Structure
	residues map[string]map[residueKey]*Residue
}

func newBuilder(name string) *builder {
	return &builder{
		s: &Structure{
			Name:   name,
			chains: make(map[string]*Chain),
		},
		residues: make(map[string]map[residueKey]*Residue),
	}
}

// addAtom places one atom.  Waters are heteroatoms even in ATOM records, and
// a repeated atom name within a residue is an alternate location: the first
// one seen wins.
func (b *builder) addAtom(rec record) {
	chainID := strings.TrimSpace(rec.chain)
	if chainID == "" {
		chainID = BlankChainID
	}
	resName := strings.ToUpper(strings.TrimSpace(rec.resName))
	het := rec.het || waterNames[resName]
	atomName := strings.TrimSpace(rec.name)

	res := b.residue(chainID, residueKey{seqNum: rec.seqNum, name: resName, het: het})
	for _, a := range res.Atoms {
		if a.Name == atomName {
			return
		}
	}

	res.Atoms = append(res.Atoms, &Atom{
		Serial:  rec.serial,
		Name:    atomName,
		Element: strings.TrimSpace(rec.element),
		Coords:  rec.coords,
		Residue: res,
	})
	b.s.atoms++
}

// residue returns the residue for key on chainID, creating the chain and
// residue on first sight.
func (b *builder) residue(chainID string, key residueKey) *Residue {
	chain, ok := b.s.chains[chainID]
	if !ok {
		chain = &Chain{ID: chainID}
		b.s.chains[chainID] = chain
		b.s.order = append(b.s.order, chainID)
		b.residues[chainID] = make(map[residueKey]*Residue)
	}
	if res, ok := b.residues[chainID][key]; ok {
		return res
	}
	res := &Residue{
		Chain:  chainID,
		SeqNum: key.seqNum,
		Name:   key.name,
		Het:    key.het,
	}
	b.residues[chainID][key] = res
	chain.Residues = append(chain.Residues, res)
	return res
}
