package wire

import "hash/crc32"

// Checksum computes the FWU metadata CRC-32: the standard Ethernet/IEEE
// polynomial (0xEDB88320) over every byte of buf except the first four
// (the crc_32 field itself), which is exactly what the stdlib IEEE
// table implements.
func Checksum(buf []byte) uint32 {
	return crc32.ChecksumIEEE(buf[4:])
}
