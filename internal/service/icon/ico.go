package icon

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// icoEntry pairs a square pixel size with PNG-encoded image data.
// Windows accepts PNG-compressed entries for all sizes since Vista.
type icoEntry struct {
	size int
	data []byte
}

const (
	// icoHeaderLen is the fixed ICONDIR header length.
	icoHeaderLen = 6
	// icoEntryLen is the length of one ICONDIRENTRY record.
	icoEntryLen = 16
	// icoTypeIcon is the resource type field value for icons.
	icoTypeIcon = 1
)

var errNoEntries = errors.New("no icon entries to write")

// writeICO assembles a multi-resolution ICO container from PNG entries.
// Layout: ICONDIR header, one ICONDIRENTRY per image, then the image data
// blocks in the same order.
func writeICO(path string, entries []icoEntry) error {
	if len(entries) == 0 {
		return errNoEntries
	}

	var buf bytes.Buffer

	// ICONDIR: reserved, type, count.
	binary.Write(&buf, binary.LittleEndian, uint16(0))               //nolint:errcheck // bytes.Buffer cannot fail.
	binary.Write(&buf, binary.LittleEndian, uint16(icoTypeIcon))     //nolint:errcheck // bytes.Buffer cannot fail.
	binary.Write(&buf, binary.LittleEndian, uint16(len(entries)))    //nolint:errcheck // bytes.Buffer cannot fail.

	offset := icoHeaderLen + icoEntryLen*len(entries)

	for _, e := range entries {
		// A zero width or height byte means 256 pixels.
		dimension := uint8(e.size)
		if e.size >= 256 {
			dimension = 0
		}

		buf.WriteByte(dimension)                                      // width
		buf.WriteByte(dimension)                                      // height
		buf.WriteByte(0)                                              // palette size
		buf.WriteByte(0)                                              // reserved
		binary.Write(&buf, binary.LittleEndian, uint16(1))            //nolint:errcheck // color planes
		binary.Write(&buf, binary.LittleEndian, uint16(32))           //nolint:errcheck // bits per pixel
		binary.Write(&buf, binary.LittleEndian, uint32(len(e.data)))  //nolint:errcheck // data length
		binary.Write(&buf, binary.LittleEndian, uint32(offset))       //nolint:errcheck // data offset

		offset += len(e.data)
	}

	for _, e := range entries {
		buf.Write(e.data)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write ico: %w", err)
	}

	return nil
}
