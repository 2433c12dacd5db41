package app

// clamp clamps v into [min, max].
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// compute dynamic widths for the Pods table based on available total width
func (m *Model) podColWidths(total int) (wNS, wPod, wReady, wMem, wMemBar, wNode, wAge int) {
	minNS, minPod, minReady, minMem, minNode, minAge := 14, 24, 6, 12, 16, 11

	base := minNS + minPod + minReady + minMem + minNode + minAge
	remain := total - base
	if remain < 10 {
		remain = 10
	}

	// the bar takes a third, the pod name the rest
	wMemBar = remain / 3
	extra := remain - wMemBar

	wNS = minNS
	wPod = minPod + extra
	wReady = minReady
	wMem = minMem
	wNode = minNode
	wAge = minAge

	wPod = clamp(wPod, 16, 60)
	wMemBar = clamp(wMemBar, 6, 40)
	return
}

// compute dynamic widths for the Nodes table based on available total width
func (m *Model) nodeColWidths(total int) (wNode, wPool, wCPU, wCap, wUsed, wPct, wBar, wAge int) {
	minNode, minPool, minCPU, minMem, minPct, minAge := 24, 10, 5, 10, 6, 11
	base := minNode + minPool + minCPU + 2*minMem + minPct + minAge
	remain := total - base
	if remain < 8 {
		remain = 8
	}

	wBar = remain / 2
	wNode = minNode + remain - wBar
	wPool = minPool
	wCPU = minCPU
	wCap = minMem
	wUsed = minMem
	wPct = minPct
	wAge = minAge

	wBar = clamp(wBar, 6, 40)
	wNode = clamp(wNode, 16, 48)
	return
}
