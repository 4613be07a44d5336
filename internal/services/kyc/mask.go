package kyc

// MaskNumber hides all but the trailing four characters of an identity
// number. Values of four characters or fewer are returned as-is; there is
// nothing left to hide.
func MaskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return "**** **** " + number[len(number)-4:]
}
