package cmod

import (
	"strconv"
	"strings"
)

// CompilerVersion is the version each loaded module's declared
// [minCHTLVersion, maxCHTLVersion] range is checked against.
const CompilerVersion = "1.0.0"

// InVersionRange reports whether v falls within [min, max] inclusive,
// comparing three dot-separated integer components. An empty bound is
// open on that side.
func InVersionRange(v, min, max string) bool {
	if min != "" && compareVersions(v, min) < 0 {
		return false
	}
	if max != "" && compareVersions(v, max) > 0 {
		return false
	}
	return true
}

func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < 3; i++ {
		ai, bi := 0, 0
		if i < len(as) {
			ai, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bi, _ = strconv.Atoi(bs[i])
		}
		if ai != bi {
			if ai < bi {
				return -1
			}
			return 1
		}
	}
	return 0
}
