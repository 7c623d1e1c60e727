// Package recognizer adapts text-recognition backends to the fragment model
// the segmenter consumes: text, a frame-relative bounding box in [0,1]², and a
// confidence in [0,1].
//
// JSONRecognizer replays frames captured as JSON fragment dumps. The Tesseract
// backend is compiled in with the "tesseract" build tag. Every backend is
// wrapped with WithConfidenceFloor so fragments below the floor never reach
// segmentation.
package recognizer
