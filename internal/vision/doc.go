// Package vision samples video frames with ffmpeg, counts the women a face
// analyzer sees in each frame, and folds per-frame labels into a timeline.
package vision
