// Package conv provides the convolution routines behind the audio graph's
// convolver node.
//
// [BlockConvolver] runs uniformly partitioned overlap-save convolution: the
// kernel is split into block-sized partitions whose spectra are combined with
// a frequency-domain delay line of past input spectra. Latency is zero
// (output block n depends on input blocks up to n) and the cost per block is
// one forward and one inverse FFT of twice the block size plus one complex
// multiply-accumulate per partition, so long impulse responses stay cheap
// at small render quanta.
//
// [Direct] is the O(N*M) reference used to validate the fast path.
package conv
