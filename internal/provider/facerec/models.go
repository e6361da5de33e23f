package facerec

// EncodeRequest for POST /encode
type EncodeRequest struct {
	Img        string `json:"img"` // base64 encoded image
	NumJitters int    `json:"num_jitters"`
}

// EncodeResponse from POST /encode, faces in detector order
type EncodeResponse struct {
	Faces []EncodedFace `json:"faces"`
}

type EncodedFace struct {
	Box       Box       `json:"box"`
	Embedding []float64 `json:"embedding"`
}

// DetectRequest for POST /detect/faces and POST /detect/eyes
type DetectRequest struct {
	Img string `json:"img"`
}

// DetectResponse from the detect endpoints
type DetectResponse struct {
	Boxes []Box `json:"boxes"`
}

type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}
