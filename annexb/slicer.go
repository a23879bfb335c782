package annexb

// Unit is a NAL unit's bounds within a buffer, start code excluded.
// Begin and End are slice indices into the caller's buffer; Units
// never copies.
type Unit struct {
	Begin int
	End   int
}

// Units splits data into the NAL units delimited by Annex-B start
// codes. Bytes before the first start code are discarded. If data
// contains no start code at all, the whole buffer is returned as a
// single unit starting at offset 0.
//
// The scanner is called exactly once per boundary: the first call
// locates the first unit's start, and each subsequent call resumes
// from where the previous unit began, so the same boundary is never
// rescanned.
//
// Parameters:
//   - data: the Annex-B byte stream to slice.
//
// Returns:
//   - []Unit: the NAL units found, in stream order; nil for empty data.
func Units(data []byte) []Unit {
	n := len(data)
	if n == 0 {
		return nil
	}

	first, ok := FindStartCode(data, 0)
	if !ok {
		return []Unit{{Begin: 0, End: n}}
	}

	var units []Unit
	begin := first.Offset

	for {
		next, ok := FindStartCode(data, begin)
		if !ok {
			units = append(units, Unit{Begin: begin, End: n})
			return units
		}
		units = append(units, Unit{Begin: begin, End: next.Offset - next.StartLen})
		begin = next.Offset
	}
}
