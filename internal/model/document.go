package model

// Document is an "introduce goods" document as accepted by the CRPT ISMP
// create-document endpoint. JSON field names follow the upstream wire format,
// including the single camelCase importRequest field. YAML keys match.
type Document struct {
	Description    string    `json:"description" yaml:"description"`
	DocID          string    `json:"doc_id" yaml:"doc_id" validate:"required,max=255"`
	DocStatus      string    `json:"doc_status" yaml:"doc_status"`
	DocType        string    `json:"doc_type" yaml:"doc_type" validate:"required"`
	ImportRequest  bool      `json:"importRequest" yaml:"importRequest"`
	OwnerINN       string    `json:"owner_inn" yaml:"owner_inn" validate:"required,inn"`
	ParticipantINN string    `json:"participant_inn" yaml:"participant_inn" validate:"required,inn"`
	ProducerINN    string    `json:"producer_inn" yaml:"producer_inn" validate:"required,inn"`
	ProductionDate string    `json:"production_date" yaml:"production_date" validate:"omitempty,isodate"`
	ProductionType string    `json:"production_type" yaml:"production_type"`
	Products       []Product `json:"products" yaml:"products" validate:"dive"`
	RegDate        string    `json:"reg_date" yaml:"reg_date" validate:"omitempty,isodate"`
	RegNumber      string    `json:"reg_number" yaml:"reg_number"`
}

// Product is a single marked unit listed in a Document.
type Product struct {
	CertificateDocument       string `json:"certificate_document" yaml:"certificate_document"`
	CertificateDocumentDate   string `json:"certificate_document_date" yaml:"certificate_document_date" validate:"omitempty,isodate"`
	CertificateDocumentNumber string `json:"certificate_document_number" yaml:"certificate_document_number"`
	OwnerINN                  string `json:"owner_inn" yaml:"owner_inn" validate:"omitempty,inn"`
	ProducerINN               string `json:"producer_inn" yaml:"producer_inn" validate:"omitempty,inn"`
	ProductionDate            string `json:"production_date" yaml:"production_date" validate:"omitempty,isodate"`
	TnvedCode                 string `json:"tnved_code" yaml:"tnved_code"`
	UitCode                   string `json:"uit_code" yaml:"uit_code"`
	UituCode                  string `json:"uitu_code" yaml:"uitu_code"`
}

// DocTypeIntroduceGoods is the document type for goods produced in Russia.
const DocTypeIntroduceGoods = "LP_INTRODUCE_GOODS"

// SampleDocument returns a fully populated document usable against the
// sandbox endpoint and in tests.
func SampleDocument() *Document {
	return &Document{
		Description:    "sample",
		DocID:          "123",
		DocStatus:      "new",
		DocType:        DocTypeIntroduceGoods,
		ImportRequest:  true,
		OwnerINN:       "1234567890",
		ParticipantINN: "0987654321",
		ProducerINN:    "1122334455",
		ProductionDate: "2020-01-23",
		ProductionType: "type",
		RegDate:        "2020-01-23",
		RegNumber:      "reg123",
		Products: []Product{
			{
				CertificateDocument:       "cert123",
				CertificateDocumentDate:   "2020-01-23",
				CertificateDocumentNumber: "certnum123",
				OwnerINN:                  "1234567890",
				ProducerINN:               "1122334455",
				ProductionDate:            "2020-01-23",
				TnvedCode:                 "123456",
				UitCode:                   "uit123",
				UituCode:                  "uitu123",
			},
		},
	}
}
