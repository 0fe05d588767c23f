package types

// BootID and ConfigID are the UDA 1.1 monotonic counters carried as
// BOOTID.UPNP.ORG and CONFIGID.UPNP.ORG. BootID increments each time a
// device instance (re)joins the network; ConfigID increments whenever the
// device/service description topology changes shape.
type BootID int32
type ConfigID int32

// Next returns the counter advanced by one, wrapping to 0 after the
// UDA-mandated upper bound of 2^24-1 so the header value stays within the
// range peers are required to accept.
const bootConfigWrap = 1<<24 - 1

func (b BootID) Next() BootID {
	if int32(b) >= bootConfigWrap {
		return 0
	}
	return b + 1
}

func (c ConfigID) Next() ConfigID {
	if int32(c) >= bootConfigWrap {
		return 0
	}
	return c + 1
}
