package messages

import "encoding/json"

// Coordinate bounds; both ranges are open.
const (
	MaxLatitude  = 90
	MinLatitude  = -90
	MaxLongitude = 180
	MinLongitude = -180
)

// A zero field is unset: it is omitted on the wire and fails Validate when
// the field is mandatory. Only coordinates use pointers, since 0 is a real
// latitude or longitude.

// Text is a plain text message.
type Text struct {
	Common
	Text string `json:"text,omitempty"`
}

func (Text) Type() Type { return TypeText }

func (m Text) Validate() bool { return m.Text != "" }

func (m Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeText, plain(m)})
}

// Picture sends an image by URL.
type Picture struct {
	Common
	Media     string `json:"media,omitempty"`
	Text      string `json:"text,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

func (Picture) Type() Type { return TypePicture }

func (m Picture) Validate() bool { return m.Media != "" }

func (m Picture) MarshalJSON() ([]byte, error) {
	type plain Picture
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypePicture, plain(m)})
}

// Video sends a video by URL. Size is in bytes, Duration in seconds.
type Video struct {
	Common
	Media     string `json:"media,omitempty"`
	Size      int64  `json:"size,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Duration  int    `json:"duration,omitempty"`
	Text      string `json:"text,omitempty"`
}

func (Video) Type() Type { return TypeVideo }

func (m Video) Validate() bool { return m.Media != "" && m.Size != 0 }

func (m Video) MarshalJSON() ([]byte, error) {
	type plain Video
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeVideo, plain(m)})
}

// File sends a downloadable file by URL.
type File struct {
	Common
	Media    string `json:"media,omitempty"`
	Size     int64  `json:"size,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

func (File) Type() Type { return TypeFile }

func (m File) Validate() bool { return m.Media != "" && m.Size != 0 && m.FileName != "" }

func (m File) MarshalJSON() ([]byte, error) {
	type plain File
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeFile, plain(m)})
}

// URL sends a link.
type URL struct {
	Common
	Media string `json:"media,omitempty"`
}

func (URL) Type() Type { return TypeURL }

func (m URL) Validate() bool { return m.Media != "" }

func (m URL) MarshalJSON() ([]byte, error) {
	type plain URL
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeURL, plain(m)})
}

// Coordinates is a point on the map. Nil components are unset; zero is a
// legal coordinate.
type Coordinates struct {
	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// NewCoordinates returns coordinates with both components set.
func NewCoordinates(lat, lon float64) *Coordinates {
	return &Coordinates{Lat: &lat, Lon: &lon}
}

// Validate reports whether both components are set and inside the open ranges.
func (c *Coordinates) Validate() bool {
	if c == nil || c.Lat == nil || c.Lon == nil {
		return false
	}
	if *c.Lat >= MaxLatitude || *c.Lat <= MinLatitude {
		return false
	}
	if *c.Lon >= MaxLongitude || *c.Lon <= MinLongitude {
		return false
	}
	return true
}

// Location shares a map point.
type Location struct {
	Common
	Location *Coordinates `json:"location,omitempty"`
}

func (Location) Type() Type { return TypeLocation }

func (m Location) Validate() bool { return m.Location.Validate() }

func (m Location) MarshalJSON() ([]byte, error) {
	type plain Location
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeLocation, plain(m)})
}

// ContactInfo is the payload of a Contact message.
type ContactInfo struct {
	Name        string `json:"name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// Contact shares a phone contact.
type Contact struct {
	Common
	Contact *ContactInfo `json:"contact,omitempty"`
}

func (Contact) Type() Type { return TypeContact }

func (m Contact) Validate() bool {
	return m.Contact != nil && m.Contact.Name != "" && m.Contact.PhoneNumber != ""
}

func (m Contact) MarshalJSON() ([]byte, error) {
	type plain Contact
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeContact, plain(m)})
}

// Sticker sends a sticker by its numeric id.
type Sticker struct {
	Common
	StickerID int64 `json:"sticker_id,omitempty"`
}

func (Sticker) Type() Type { return TypeSticker }

func (m Sticker) Validate() bool { return m.StickerID != 0 }

func (m Sticker) MarshalJSON() ([]byte, error) {
	type plain Sticker
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeSticker, plain(m)})
}

// RichMedia sends a carousel of buttons. AltText is shown by clients that
// cannot render rich media.
type RichMedia struct {
	Common
	RichMedia map[string]any `json:"rich_media,omitempty"`
	AltText   string         `json:"alt_text,omitempty"`
}

func (RichMedia) Type() Type { return TypeRichMedia }

func (m RichMedia) Validate() bool { return m.RichMedia != nil }

func (m RichMedia) MarshalJSON() ([]byte, error) {
	type plain RichMedia
	return json.Marshal(struct {
		Type Type `json:"type"`
		plain
	}{TypeRichMedia, plain(m)})
}

// Keyboard only updates the custom keyboard. It carries no "type" on the
// wire.
type Keyboard struct {
	Common
}

func (Keyboard) Type() Type { return TypeKeyboard }

func (m Keyboard) Validate() bool { return m.Keyboard != nil }
