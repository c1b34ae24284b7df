package structure

import "strings"

// Unknown is the one-letter marker used for residue names outside the
// standard amino-acid table.
const Unknown byte = 'X'

// AminoThreeToOne maps the twenty standard amino-acid codes to their one
// letter representation.
var AminoThreeToOne = map[string]byte{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLU": 'E', "GLN": 'Q', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
}

// OneLetter returns the one-letter code for a three-letter residue name.
// Lookup is case-insensitive. ok is false when the name is not one of the
// twenty standard amino acids.
func OneLetter(threeLetter string) (code byte, ok bool) {
	code, ok = AminoThreeToOne[strings.ToUpper(strings.TrimSpace(threeLetter))]
	return code, ok
}

// OneLetterOrUnknown is like OneLetter but returns Unknown for unmapped names.
func OneLetterOrUnknown(threeLetter string) byte {
	if code, ok := OneLetter(threeLetter); ok {
		return code
	}
	return Unknown
}

// waterNames are residue names treated as heteroatoms even when they appear
// in ATOM records.
var waterNames = map[string]bool{
	"HOH": true, "WAT": true, "DOD": true,
}
