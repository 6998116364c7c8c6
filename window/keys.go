package window

// Key codes for keys without a printable character. Letters and digits
// are reported as their upper-case ASCII code.
const (
	KeyBackspace uint8 = 0x08
	KeyTab       uint8 = 0x09
	KeyEnter     uint8 = 0x0D
	KeyEscape    uint8 = 0x1B
	KeySpace     uint8 = 0x20
	KeyLeft      uint8 = 0x25
	KeyUp        uint8 = 0x26
	KeyRight     uint8 = 0x27
	KeyDown      uint8 = 0x28
)
