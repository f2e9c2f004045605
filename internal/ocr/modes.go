package ocr

// SegMode identifies one page-segmentation assumption for an optical pass.
// PSM values follow the Tesseract numbering so stubs stay engine-agnostic.
type SegMode struct {
	Name string
	PSM  int
}

// passModes are tried in order over the same preprocessed image; each is an
// independent attempt and the best-scoring pass wins.
var passModes = []SegMode{
	{Name: "single-block", PSM: 6},
	{Name: "single-column", PSM: 4},
	{Name: "sparse", PSM: 11},
	{Name: "auto", PSM: 3},
	{Name: "sparse-osd", PSM: 12},
}
