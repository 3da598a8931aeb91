package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// BlockConvolver is a streaming, uniformly partitioned overlap-save
// convolver with a fixed block size.
type BlockConvolver struct {
	kernelLen int
	blockSize int
	fftSize   int

	plan *algofft.Plan[complex128]

	// partitions[p] is the spectrum of kernel[p*blockSize:(p+1)*blockSize].
	partitions [][]complex128

	// fdl holds the input spectra of the last len(partitions) blocks;
	// fdl[head] is the newest.
	fdl  [][]complex128
	head int

	window  []float64 // previous block followed by current block
	scratch []complex128
	acc     []complex128
}

// NewBlockConvolver creates a convolver for kernel that consumes and
// produces blocks of blockSize samples. blockSize is rounded up to a power
// of two.
func NewBlockConvolver(kernel []float64, blockSize int) (*BlockConvolver, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	blockSize = nextPowerOf2(blockSize)
	fftSize := 2 * blockSize

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	count := (len(kernel) + blockSize - 1) / blockSize

	c := &BlockConvolver{
		kernelLen:  len(kernel),
		blockSize:  blockSize,
		fftSize:    fftSize,
		plan:       plan,
		partitions: make([][]complex128, count),
		fdl:        make([][]complex128, count),
		window:     make([]float64, fftSize),
		scratch:    make([]complex128, fftSize),
		acc:        make([]complex128, fftSize),
	}

	padded := make([]complex128, fftSize)

	for p := range count {
		for i := range padded {
			padded[i] = 0
		}

		start := p * blockSize
		end := min(start+blockSize, len(kernel))

		for i, v := range kernel[start:end] {
			padded[i] = complex(v, 0)
		}

		spectrum := make([]complex128, fftSize)

		err = plan.Forward(spectrum, padded)
		if err != nil {
			return nil, fmt.Errorf("conv: failed to compute kernel partition %d FFT: %w", p, err)
		}

		c.partitions[p] = spectrum
		c.fdl[p] = make([]complex128, fftSize)
	}

	return c, nil
}

// BlockSize returns the block size in samples.
func (c *BlockConvolver) BlockSize() int {
	return c.blockSize
}

// KernelLen returns the kernel length.
func (c *BlockConvolver) KernelLen() int {
	return c.kernelLen
}

// Partitions returns the number of kernel partitions.
func (c *BlockConvolver) Partitions() int {
	return len(c.partitions)
}

// ProcessBlock convolves one block of input into dst.
// Both slices must hold exactly BlockSize samples; they may alias.
func (c *BlockConvolver) ProcessBlock(dst, src []float64) error {
	if len(src) != c.blockSize || len(dst) != c.blockSize {
		return fmt.Errorf("%w: expected %d samples, got src=%d dst=%d",
			ErrLengthMismatch, c.blockSize, len(src), len(dst))
	}

	// Slide the input window: [previous block | current block].
	copy(c.window, c.window[c.blockSize:])
	copy(c.window[c.blockSize:], src)

	for i, v := range c.window {
		c.scratch[i] = complex(v, 0)
	}

	c.head--
	if c.head < 0 {
		c.head = len(c.fdl) - 1
	}

	err := c.plan.Forward(c.fdl[c.head], c.scratch)
	if err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range c.acc {
		c.acc[i] = 0
	}

	for p, h := range c.partitions {
		x := c.fdl[(c.head+p)%len(c.fdl)]
		for i := range c.acc {
			c.acc[i] += x[i] * h[i]
		}
	}

	err = c.plan.Inverse(c.scratch, c.acc)
	if err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// The first half carries the circular wrap-around and is discarded.
	for i := range c.blockSize {
		dst[i] = real(c.scratch[c.blockSize+i])
	}

	return nil
}

// Reset clears the input history.
func (c *BlockConvolver) Reset() {
	for i := range c.window {
		c.window[i] = 0
	}

	for _, x := range c.fdl {
		for i := range x {
			x[i] = 0
		}
	}

	c.head = 0
}
