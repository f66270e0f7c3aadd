package metadata

import (
	"bytes"
	"encoding/binary"
)

// Minimal little-endian TIFF writer used to produce EXIF fixtures.

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, s string) ifdEntry {
	b := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: typeASCII, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, v uint16) ifdEntry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return ifdEntry{tag: tag, typ: typeShort, count: 1, data: b}
}

func longEntry(tag uint16, v uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return ifdEntry{tag: tag, typ: typeLong, count: 1, data: b}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[:4], num)
	binary.LittleEndian.PutUint32(b[4:], den)
	return ifdEntry{tag: tag, typ: typeRational, count: 1, data: b}
}

func ifdSize(entries []ifdEntry) uint32 {
	size := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		if len(e.data) > 4 {
			size += uint32(len(e.data)+1) &^ 1
		}
	}
	return size
}

// writeIFD lays out one directory at offset base followed by its overflow data.
func writeIFD(buf *bytes.Buffer, base uint32, entries []ifdEntry) {
	le := binary.LittleEndian
	dataOff := base + uint32(2+12*len(entries)+4)
	var data bytes.Buffer

	_ = binary.Write(buf, le, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, le, e.tag)
		_ = binary.Write(buf, le, e.typ)
		_ = binary.Write(buf, le, e.count)
		if len(e.data) <= 4 {
			inline := make([]byte, 4)
			copy(inline, e.data)
			buf.Write(inline)
			continue
		}
		_ = binary.Write(buf, le, dataOff+uint32(data.Len()))
		data.Write(e.data)
		if data.Len()%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(buf, le, uint32(0)) // no next IFD
	buf.Write(data.Bytes())
}

// buildTIFF returns a TIFF stream with ifd0 and an EXIF sub-directory.
// Entries must be given in ascending tag order.
func buildTIFF(ifd0, exifIFD []ifdEntry) []byte {
	const headerSize = 8
	ifd0 = append(append([]ifdEntry{}, ifd0...), longEntry(0x8769, 0))
	exifOffset := headerSize + ifdSize(ifd0)
	binary.LittleEndian.PutUint32(ifd0[len(ifd0)-1].data, exifOffset)

	var buf bytes.Buffer
	buf.WriteString("II")
	_ = binary.Write(&buf, binary.LittleEndian, uint16(42))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	writeIFD(&buf, headerSize, ifd0)
	writeIFD(&buf, exifOffset, exifIFD)
	return buf.Bytes()
}

// sampleTIFF mimics a Fujifilm frame shot at 1/250s, f/2.8, ISO 400, 23mm.
func sampleTIFF() []byte {
	return buildTIFF(
		[]ifdEntry{
			asciiEntry(0x010F, "FUJIFILM"),
			asciiEntry(0x0110, "X100V"),
		},
		[]ifdEntry{
			rationalEntry(0x829A, 1, 250),
			rationalEntry(0x829D, 28, 10),
			shortEntry(0x8827, 400),
			asciiEntry(0x9003, "2024:05:01 18:30:00"),
			rationalEntry(0x920A, 23, 1),
			asciiEntry(0xA434, "XF23mmF2 R WR"),
		},
	)
}
