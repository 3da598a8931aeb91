// Package impulse holds the reverb's impulse-response catalog and the
// loaders that fetch and decode catalog entries into audio buffers.
//
// Locators are either http(s) URLs or filesystem paths. A locator may carry
// a fragment naming one entry of an IRLB impulse library, e.g.
// "irs.irlib#Plate". Decoding supports PCM RIFF/WAVE files and IRLB
// libraries.
package impulse
