// Package espled speaks the JSON request protocol of the espled LED firmware.
package espled

// Requests and replies are JSON documents, one per frame. Requests follow
// the externally tagged enum encoding of the firmware:
//
//	"GetEffects"
//	{"SetEffect":2}
//	{"SetOption":["speed",{"Float":0.5}]}
//	{"SetOption":["color",{"Color":{"red":255,"green":0,"blue":64}}]}
//
// The firmware also prints free-form log lines which are not JSON.
// Some firmware builds echo every received byte as "Read byte: N" before
// answering, so a delimited frame may hold those lines followed by the
// reply. The last line of such a frame is taken as the reply and the rest
// is passed on as log text.
//
// The firmware has no request ids. Replies are paired with requests in
// order; SetEffect answers true or false, SetOption always true.
