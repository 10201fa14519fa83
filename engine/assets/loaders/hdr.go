package loaders

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	m "math"
	"strconv"
	"strings"
)

var (
	errInvalidHDRSignature  = errors.New("missing radiance signature")
	errUnsupportedHDRFormat = errors.New("unsupported radiance pixel format")
	errInvalidHDRResolution = errors.New("invalid radiance resolution line")
	errTruncatedHDR         = errors.New("radiance pixel data truncated")
)

// EnvironmentMap is a decoded equirectangular HDR image, linear RGB.
type EnvironmentMap struct {
	Name     string
	Width    int
	Height   int
	Exposure float32
	Pixels   []float32
	ByteSize int64
}

func (e *EnvironmentMap) Dimensions() (int, int) {
	return e.Width, e.Height
}

// HDRLoader decodes Radiance RGBE (.hdr) files.
type HDRLoader struct{}

func (hl *HDRLoader) Parse(name string, data []byte) (*EnvironmentMap, error) {
	src := bytes.NewReader(data)
	r := bufio.NewReader(src)

	exposure, err := readHDRHeader(r)
	if err != nil {
		return nil, err
	}
	width, height, err := readHDRResolution(r)
	if err != nil {
		return nil, err
	}

	left := r.Buffered() + src.Len()
	if height > left/minHDRScanlineSize(width) {
		return nil, fmt.Errorf("%dx%d image needs more than the %d bytes left: %w", width, height, left, errTruncatedHDR)
	}

	pixels := make([]float32, width*height*3)
	scanline := make([]byte, width*4)
	for y := 0; y < height; y++ {
		if err := readHDRScanline(r, scanline, width); err != nil {
			return nil, fmt.Errorf("scanline %d: %w", y, err)
		}
		row := pixels[y*width*3 : (y+1)*width*3]
		for x := 0; x < width; x++ {
			rgbeToFloat(scanline[x*4:x*4+4], row[x*3:x*3+3])
		}
	}

	return &EnvironmentMap{
		Name:     name,
		Width:    width,
		Height:   height,
		Exposure: exposure,
		Pixels:   pixels,
		ByteSize: int64(len(data)),
	}, nil
}

func readHDRHeader(r *bufio.Reader) (float32, error) {
	line, err := r.ReadString('\n')
	if err != nil || !strings.HasPrefix(line, "#?") {
		return 0, errInvalidHDRSignature
	}

	exposure := float32(1)
	for {
		line, err = r.ReadString('\n')
		if err != nil {
			return 0, fmt.Errorf("reading header: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			return exposure, nil
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "FORMAT":
			if value != "32-bit_rle_rgbe" {
				return 0, fmt.Errorf("%w: %s", errUnsupportedHDRFormat, value)
			}
		case "EXPOSURE":
			if f, err := strconv.ParseFloat(strings.TrimSpace(value), 32); err == nil {
				exposure *= float32(f)
			}
		}
	}
}

// Only the standard orientation "-Y <height> +X <width>" is supported.
func readHDRResolution(r *bufio.Reader) (int, int, error) {
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, 0, errInvalidHDRResolution
	}
	fields := strings.Fields(line)
	if len(fields) != 4 || fields[0] != "-Y" || fields[2] != "+X" {
		return 0, 0, errInvalidHDRResolution
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil || height <= 0 {
		return 0, 0, errInvalidHDRResolution
	}
	width, err := strconv.Atoi(fields[3])
	if err != nil || width <= 0 {
		return 0, 0, errInvalidHDRResolution
	}
	return width, height, nil
}

// minHDRScanlineSize is the fewest bytes a scanline of width pixels can be
// encoded in. Run length encoding packs at most 127 pixels into two bytes
// per channel.
func minHDRScanlineSize(width int) int {
	if width < 8 || width >= 0x8000 {
		if width > m.MaxInt/4 {
			return m.MaxInt
		}
		return width * 4
	}
	return min(width*4, 4+4*2*((width+126)/127))
}

// readHDRScanline fills dst with width RGBE pixels, handling both flat and
// new-style run length encoded scanlines.
func readHDRScanline(r *bufio.Reader, dst []byte, width int) error {
	head, err := r.Peek(4)
	if err != nil {
		return errTruncatedHDR
	}
	rle := width >= 8 && width < 0x8000 &&
		head[0] == 2 && head[1] == 2 && head[2]&0x80 == 0 &&
		int(head[2])<<8|int(head[3]) == width
	if !rle {
		if _, err := io.ReadFull(r, dst); err != nil {
			return errTruncatedHDR
		}
		return nil
	}
	if _, err := r.Discard(4); err != nil {
		return errTruncatedHDR
	}

	// channels are stored planar, one run-length stream each
	for c := 0; c < 4; c++ {
		for x := 0; x < width; {
			count, err := r.ReadByte()
			if err != nil {
				return errTruncatedHDR
			}
			if count > 128 {
				run := int(count) - 128
				if x+run > width {
					return errTruncatedHDR
				}
				v, err := r.ReadByte()
				if err != nil {
					return errTruncatedHDR
				}
				for i := 0; i < run; i++ {
					dst[(x+i)*4+c] = v
				}
				x += run
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return errTruncatedHDR
			}
			for i := 0; i < n; i++ {
				v, err := r.ReadByte()
				if err != nil {
					return errTruncatedHDR
				}
				dst[(x+i)*4+c] = v
			}
			x += n
		}
	}
	return nil
}

func rgbeToFloat(rgbe []byte, out []float32) {
	if rgbe[3] == 0 {
		out[0], out[1], out[2] = 0, 0, 0
		return
	}
	f := float32(m.Ldexp(1, int(rgbe[3])-(128+8)))
	out[0] = float32(rgbe[0]) * f
	out[1] = float32(rgbe[1]) * f
	out[2] = float32(rgbe[2]) * f
}
