package detect

// UniqueCount reports how many distinct redaction regions a detection list
// covers: boxes overlapping above the IoU threshold are counted once.
// Drawing every box is harmless, so de-duplication only affects reporting;
// callers still draw the full list. Threshold zero means DefaultDedupIoU.
func UniqueCount(dets []Detection, iouThreshold float64) int {
	if iouThreshold <= 0 {
		iouThreshold = DefaultDedupIoU
	}
	count := 0
	for i, d := range dets {
		dup := false
		for j := 0; j < i; j++ {
			if d.Box.IoU(dets[j].Box) >= iouThreshold {
				dup = true
				break
			}
		}
		if !dup {
			count++
		}
	}
	return count
}
