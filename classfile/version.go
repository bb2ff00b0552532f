package classfile

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Class file versions
// ---------------------------------------------------------------------------

// Major class file versions. The major number is 44 plus the Java feature
// release, so these only name the common ones.
const (
	MajorJDK1_1 uint16 = 45
	MajorJDK1_2 uint16 = 46
	MajorJDK1_3 uint16 = 47
	MajorJDK1_4 uint16 = 48
	MajorJava5  uint16 = 49
	MajorJava6  uint16 = 50
	MajorJava7  uint16 = 51
	MajorJava8  uint16 = 52
	MajorJava9  uint16 = 53
	MajorJava11 uint16 = 55
	MajorJava17 uint16 = 61
	MajorJava21 uint16 = 65
)

// Version range accepted by the parser. Files outside this range fail with
// ErrUnsupportedVersion rather than being decoded on guesswork.
const (
	MinSupportedMajor = MajorJDK1_1
	MaxSupportedMajor = MajorJava21
)

// Version is a class file format version. Versions order by major then
// minor.
type Version struct {
	Major uint16
	Minor uint16
}

// AtLeast reports whether v is the given major version or newer.
func (v Version) AtLeast(major uint16) bool {
	return v.Major >= major
}

// Less reports whether v precedes o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	return v.Minor < o.Minor
}

// JavaRelease returns the Java feature release this version belongs to, or 0
// for pre-Java-5 JDK versions.
func (v Version) JavaRelease() int {
	if v.Major < MajorJava5 {
		return 0
	}
	return int(v.Major) - 44
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// readVersion reads and range-checks the minor/major version pair that
// follows the magic number.
func readVersion(r *Reader) (Version, error) {
	minor, err := r.ReadU16()
	if err != nil {
		return Version{}, err
	}
	major, err := r.ReadU16()
	if err != nil {
		return Version{}, err
	}
	if major < MinSupportedMajor || major > MaxSupportedMajor {
		return Version{}, fmt.Errorf("%w: major version %d (supported %d..%d)",
			ErrUnsupportedVersion, major, MinSupportedMajor, MaxSupportedMajor)
	}
	return Version{Major: major, Minor: minor}, nil
}
