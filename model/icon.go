package model

// Icon is one declared <icon> entry: its metadata plus, once fetched, its
// raw image bytes (spec §4.2/§4.4 "GET <iconUrl>").
type Icon struct {
	Mimetype string
	Width    int
	Height   int
	Depth    int
	URL      string
	Data     []byte
}

func (i *Icon) Name() string   { return i.URL }
func (i *Icon) TypeID() string { return "Icon" }
