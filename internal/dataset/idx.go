package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	idxImageMagic = 2051
	idxLabelMagic = 2049

	// maxIDXImageSize bounds rows*cols read from an image header.
	maxIDXImageSize = 1 << 24
)

// LoadIDX loads MNIST from the official IDX binary files in dir.
//
// Expected files:
//   - train-images-idx3-ubyte, train-labels-idx1-ubyte (train = true)
//   - t10k-images-idx3-ubyte, t10k-labels-idx1-ubyte (train = false)
//
// Pixels are normalized to [0, 1]. maxSamples <= 0 loads all samples.
func LoadIDX(dir string, train bool, maxSamples int) (*Dataset, error) {
	prefix := "t10k"
	if train {
		prefix = "train"
	}

	imagePath := filepath.Join(dir, prefix+"-images-idx3-ubyte")
	images, imageCount, err := readIDXFile(imagePath, func(r io.Reader) ([][]byte, int, error) {
		return readIDXImages(r, maxSamples)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	labelPath := filepath.Join(dir, prefix+"-labels-idx1-ubyte")
	labels, labelCount, err := readIDXFile(labelPath, func(r io.Reader) ([]byte, int, error) {
		return readIDXLabels(r, maxSamples)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if imageCount != labelCount {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", imageCount, labelCount)
	}

	n := len(images)
	d := &Dataset{
		X:      make([][]float64, n),
		Labels: make([]int, n),
	}
	for i := 0; i < n; i++ {
		d.X[i] = make([]float64, len(images[i]))
		for j, px := range images[i] {
			d.X[i][j] = float64(px) / 255.0
		}
		d.Labels[i] = int(labels[i])
	}
	return d, nil
}

func readIDXFile[T any](path string, read func(io.Reader) (T, int, error)) (T, int, error) {
	file, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, 0, err
	}
	defer file.Close()

	return read(file)
}

// readIDXImages reads at most limit images from an IDX image stream, or all
// of them when limit <= 0. It also returns the count the header declares.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes
//	number of cols: 4 bytes
//	pixel data: unsigned bytes (0-255)
func readIDXImages(r io.Reader, limit int) ([][]byte, int, error) {
	var header struct {
		Magic, Count, Rows, Cols uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != idxImageMagic {
		return nil, 0, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, idxImageMagic)
	}

	size := int(header.Rows) * int(header.Cols)
	if size > maxIDXImageSize {
		return nil, 0, fmt.Errorf("image size %dx%d exceeds %d pixels", header.Rows, header.Cols, maxIDXImageSize)
	}

	count := int(header.Count)
	n := clampCount(count, limit)
	// The header count is untrusted; grow as images actually arrive.
	images := make([][]byte, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		img := make([]byte, size)
		if _, err := io.ReadFull(r, img); err != nil {
			return nil, 0, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		images = append(images, img)
	}
	return images, count, nil
}

// readIDXLabels reads at most limit labels from an IDX label stream, or all
// of them when limit <= 0. It also returns the count the header declares.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readIDXLabels(r io.Reader, limit int) ([]byte, int, error) {
	var header struct {
		Magic, Count uint32
	}
	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, 0, fmt.Errorf("failed to read header: %w", err)
	}
	if header.Magic != idxLabelMagic {
		return nil, 0, fmt.Errorf("invalid magic number: got %d, want %d", header.Magic, idxLabelMagic)
	}

	count := int(header.Count)
	n := clampCount(count, limit)
	labels, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read labels: %w", err)
	}
	if len(labels) != n {
		return nil, 0, fmt.Errorf("failed to read labels: got %d of %d: %w", len(labels), n, io.ErrUnexpectedEOF)
	}
	return labels, count, nil
}

func clampCount(count, limit int) int {
	if limit > 0 && count > limit {
		return limit
	}
	return count
}
