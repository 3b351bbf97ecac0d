package textextract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Word 97-2003 binary layout.
const (
	fibIdent          = 0xA5EC
	fibFlagsOffset    = 0x000A
	fibFcClxOffset    = 0x01A2
	fibLcbClxOffset   = 0x01A6
	fibMinSize        = 0x01AA
	fibWhichTblStm    = 0x0200
	fibEncrypted      = 0x0100
	pieceCompressed   = 0x40000000
	clxPrcMarker      = 0x01
	clxPcdtMarker     = 0x02
	pieceDescriptorSz = 8
)

// extractDOC reads the WordDocument stream of an OLE compound file and
// reassembles the document text from the piece table.
func extractDOC(data []byte) (res ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = ExtractionResult{}
			err = fmt.Errorf("%w: ole parser panic: %v", ErrCorruptDocument, r)
		}
	}()

	rdr, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	streams := map[string][]byte{}
	for entry, err := rdr.Next(); ; entry, err = rdr.Next() {
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ExtractionResult{}, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
		}
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
			b, err := io.ReadAll(entry)
			if err != nil {
				return ExtractionResult{}, fmt.Errorf("%w: read %s: %v", ErrCorruptDocument, entry.Name, err)
			}
			streams[entry.Name] = b
		}
	}

	wordDoc, ok := streams["WordDocument"]
	if !ok {
		return ExtractionResult{}, fmt.Errorf("%w: missing WordDocument stream", ErrCorruptDocument)
	}
	text, err := wordText(wordDoc, streams["0Table"], streams["1Table"])
	if err != nil {
		return ExtractionResult{}, err
	}
	return ExtractionResult{Text: text, Pages: 1, Method: MethodDOC}, nil
}

// wordText validates the FIB, selects the table stream and decodes every piece.
func wordText(wordDoc, table0, table1 []byte) (string, error) {
	if len(wordDoc) < fibMinSize {
		return "", fmt.Errorf("%w: WordDocument stream too short", ErrCorruptDocument)
	}
	if binary.LittleEndian.Uint16(wordDoc[0:2]) != fibIdent {
		return "", fmt.Errorf("%w: not a Word 97+ document", ErrCorruptDocument)
	}
	flags := binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])
	if flags&fibEncrypted != 0 {
		return "", fmt.Errorf("%w: document is encrypted", ErrCorruptDocument)
	}
	table := table0
	if flags&fibWhichTblStm != 0 {
		table = table1
	}
	if table == nil {
		return "", fmt.Errorf("%w: missing table stream", ErrCorruptDocument)
	}

	fcClx := binary.LittleEndian.Uint32(wordDoc[fibFcClxOffset:])
	lcbClx := binary.LittleEndian.Uint32(wordDoc[fibLcbClxOffset:])
	if lcbClx == 0 || uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return "", fmt.Errorf("%w: piece table out of range", ErrCorruptDocument)
	}
	raw, err := pieceText(wordDoc, table[fcClx:fcClx+lcbClx])
	if err != nil {
		return "", err
	}
	return cleanWordText(raw), nil
}

// pieceText walks the CLX: optional Prc entries followed by one Pcdt whose
// PlcPcd holds n+1 character positions and n piece descriptors.
func pieceText(wordDoc, clx []byte) (string, error) {
	pos := 0
	for pos < len(clx) && clx[pos] == clxPrcMarker {
		if pos+3 > len(clx) {
			return "", fmt.Errorf("%w: truncated Prc", ErrCorruptDocument)
		}
		cb := int(int16(binary.LittleEndian.Uint16(clx[pos+1:])))
		if cb < 0 {
			return "", fmt.Errorf("%w: bad Prc size", ErrCorruptDocument)
		}
		pos += 3 + cb
	}
	if pos+5 > len(clx) || clx[pos] != clxPcdtMarker {
		return "", fmt.Errorf("%w: missing Pcdt", ErrCorruptDocument)
	}
	lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
	plc := clx[pos+5:]
	if lcb > len(plc) || lcb < 4 || (lcb-4)%(4+pieceDescriptorSz) != 0 {
		return "", fmt.Errorf("%w: bad PlcPcd size", ErrCorruptDocument)
	}
	plc = plc[:lcb]
	n := (lcb - 4) / (4 + pieceDescriptorSz)
	pcds := plc[4*(n+1):]

	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	cp1252 := charmap.Windows1252.NewDecoder()

	var b strings.Builder
	for i := 0; i < n; i++ {
		cpStart := binary.LittleEndian.Uint32(plc[4*i:])
		cpEnd := binary.LittleEndian.Uint32(plc[4*(i+1):])
		if cpEnd < cpStart {
			return "", fmt.Errorf("%w: piece %d has negative length", ErrCorruptDocument, i)
		}
		count := uint64(cpEnd - cpStart)
		fc := binary.LittleEndian.Uint32(pcds[i*pieceDescriptorSz+2:])

		if fc&pieceCompressed != 0 {
			off := uint64(fc&^pieceCompressed) / 2
			if off+count > uint64(len(wordDoc)) {
				return "", fmt.Errorf("%w: piece %d out of range", ErrCorruptDocument, i)
			}
			s, err := cp1252.Bytes(wordDoc[off : off+count])
			if err != nil {
				return "", fmt.Errorf("%w: piece %d: %v", ErrCorruptDocument, i, err)
			}
			b.Write(s)
			continue
		}
		off := uint64(fc)
		if off+2*count > uint64(len(wordDoc)) {
			return "", fmt.Errorf("%w: piece %d out of range", ErrCorruptDocument, i)
		}
		s, err := utf16.Bytes(wordDoc[off : off+2*count])
		if err != nil {
			return "", fmt.Errorf("%w: piece %d: %v", ErrCorruptDocument, i, err)
		}
		b.Write(s)
	}
	return b.String(), nil
}

// cleanWordText maps Word control characters onto plain whitespace and drops
// field instructions, keeping field results.
func cleanWordText(s string) string {
	var (
		b     strings.Builder
		field []bool // one entry per open field; true while in its instruction part
	)
	inInstruction := func() bool {
		for _, f := range field {
			if f {
				return true
			}
		}
		return false
	}
	for _, r := range s {
		switch r {
		case 0x13: // field begin
			field = append(field, true)
			continue
		case 0x14: // field separator
			if len(field) > 0 {
				field[len(field)-1] = false
			}
			continue
		case 0x15: // field end
			if len(field) > 0 {
				field = field[:len(field)-1]
			}
			continue
		}
		if inInstruction() {
			continue
		}
		switch {
		case r == '\r', r == 0x0B, r == 0x0C:
			b.WriteByte('\n')
		case r == 0x07:
			b.WriteByte('\t')
		case r == 0x1E:
			b.WriteByte('-')
		case r == '\t', r == '\n':
			b.WriteRune(r)
		case r < 0x20:
			// other control marks (optional hyphen, object anchors)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
