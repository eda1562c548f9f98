package extract

import "regexp"

// minBarcodeLength rejects phone numbers and other incidental digit
// sequences: real voucher barcodes carry at least 16 digits.
const minBarcodeLength = 16

// barcodePatterns is the ordered strategy list for barcode extraction,
// preferring longer digit runs first.
var barcodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{20}`),
	regexp.MustCompile(`\d{16,19}`),
	regexp.MustCompile(`\d{12,15}`),
}

// voucherPagePattern recognizes a link to the merchant's voucher page, used
// as the fallback barcode source when the body carries none.
var voucherPagePattern = regexp.MustCompile(`https://myconsumers\.pluxee\.co\.il/[^\s<>"')]*`)

// ExtractBarcode scans text for a voucher barcode: the first digit run of at
// least 16 digits, preferring longer runs.
func ExtractBarcode(text string) (string, bool) {
	for _, pattern := range barcodePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			if len(match) >= minBarcodeLength {
				return match, true
			}
		}
	}
	return "", false
}

// VoucherPageURL returns the first recognized voucher-portal URL in text, or
// an empty string.
func VoucherPageURL(text string) string {
	return voucherPagePattern.FindString(text)
}
