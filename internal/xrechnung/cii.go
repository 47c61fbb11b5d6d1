package xrechnung

import "encoding/xml"

// Namespaces of the UN/CEFACT Cross Industry Invoice D16B schema.
const (
	NamespaceRSM = "urn:un:unece:uncefact:data:standard:CrossIndustryInvoice:100"
	NamespaceRAM = "urn:un:unece:uncefact:data:standard:ReusableAggregateBusinessInformationEntity:100"
	NamespaceUDT = "urn:un:unece:uncefact:data:standard:UnqualifiedDataType:100"
	NamespaceQDT = "urn:un:unece:uncefact:data:standard:QualifiedDataType:100"
)

// Document context identifiers.
const (
	BusinessProcess = "urn:fdc:peppol.eu:2017:poacc:billing:01:1.0"
	Guideline       = "urn:cen.eu:en16931:2017#compliant#urn:xeinkauf.de:kosit:xrechnung_3.0"
)

// Code values.
const (
	TypeCodeInvoice         = "380"
	DateFormat102           = "102" // YYYYMMDD
	PaymentMeansSEPA        = "58"
	SchemeHandelsregister   = "0002"
	SchemeEmail             = "EM"
	SchemeVATID             = "VA"
	SchemeTaxNumber         = "FC"
	TaxTypeVAT              = "VAT"
	PaymentTermDays         = 14
	DefaultDocumentFileName = "xrechnung.xml"
)

// Struct field order is document order; the element names carry their
// namespace prefix literally.

// CrossIndustryInvoice is the document root.
type CrossIndustryInvoice struct {
	XMLName  xml.Name `xml:"rsm:CrossIndustryInvoice"`
	XmlnsRSM string   `xml:"xmlns:rsm,attr"`
	XmlnsRAM string   `xml:"xmlns:ram,attr"`
	XmlnsUDT string   `xml:"xmlns:udt,attr"`
	XmlnsQDT string   `xml:"xmlns:qdt,attr"`

	Context     DocumentContext   `xml:"rsm:ExchangedDocumentContext"`
	Document    ExchangedDocument `xml:"rsm:ExchangedDocument"`
	Transaction TradeTransaction  `xml:"rsm:SupplyChainTradeTransaction"`
}

type DocumentContext struct {
	BusinessProcess IDParameter `xml:"ram:BusinessProcessSpecifiedDocumentContextParameter"`
	Guideline       IDParameter `xml:"ram:GuidelineSpecifiedDocumentContextParameter"`
}

type IDParameter struct {
	ID string `xml:"ram:ID"`
}

type ExchangedDocument struct {
	ID        string   `xml:"ram:ID"`
	TypeCode  string   `xml:"ram:TypeCode"`
	IssueDate DateTime `xml:"ram:IssueDateTime"`
	Notes     []Note   `xml:"ram:IncludedNote,omitempty"`
}

type Note struct {
	Content string `xml:"ram:Content"`
}

type DateTime struct {
	Value DateString `xml:"udt:DateTimeString"`
}

type DateString struct {
	Format string `xml:"format,attr"`
	Value  string `xml:",chardata"`
}

type TradeTransaction struct {
	Lines      []LineItem       `xml:"ram:IncludedSupplyChainTradeLineItem"`
	Agreement  HeaderAgreement  `xml:"ram:ApplicableHeaderTradeAgreement"`
	Delivery   HeaderDelivery   `xml:"ram:ApplicableHeaderTradeDelivery"`
	Settlement HeaderSettlement `xml:"ram:ApplicableHeaderTradeSettlement"`
}

type LineItem struct {
	Document   LineDocument   `xml:"ram:AssociatedDocumentLineDocument"`
	Product    TradeProduct   `xml:"ram:SpecifiedTradeProduct"`
	Agreement  LineAgreement  `xml:"ram:SpecifiedLineTradeAgreement"`
	Delivery   LineDelivery   `xml:"ram:SpecifiedLineTradeDelivery"`
	Settlement LineSettlement `xml:"ram:SpecifiedLineTradeSettlement"`
}

type LineDocument struct {
	LineID string `xml:"ram:LineID"`
}

type TradeProduct struct {
	Name string `xml:"ram:Name"`
}

type LineAgreement struct {
	NetPrice TradePrice `xml:"ram:NetPriceProductTradePrice"`
}

type TradePrice struct {
	ChargeAmount  string    `xml:"ram:ChargeAmount"`
	BasisQuantity *Quantity `xml:"ram:BasisQuantity,omitempty"`
}

type Quantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

type LineDelivery struct {
	BilledQuantity Quantity `xml:"ram:BilledQuantity"`
}

type LineSettlement struct {
	Tax       TradeTax              `xml:"ram:ApplicableTradeTax"`
	Summation LineMonetarySummation `xml:"ram:SpecifiedTradeSettlementLineMonetarySummation"`
}

type LineMonetarySummation struct {
	LineTotal string `xml:"ram:LineTotalAmount"`
}

// TradeTax serves both the line tax (rate only) and the header breakdown
// (with amounts).
type TradeTax struct {
	CalculatedAmount string `xml:"ram:CalculatedAmount,omitempty"`
	TypeCode         string `xml:"ram:TypeCode"`
	BasisAmount      string `xml:"ram:BasisAmount,omitempty"`
	CategoryCode     string `xml:"ram:CategoryCode"`
	Rate             string `xml:"ram:RateApplicablePercent"`
}

type HeaderAgreement struct {
	BuyerReference string     `xml:"ram:BuyerReference"`
	Seller         TradeParty `xml:"ram:SellerTradeParty"`
	Buyer          TradeParty `xml:"ram:BuyerTradeParty"`
}

type TradeParty struct {
	Name              string             `xml:"ram:Name"`
	LegalOrganization *LegalOrganization `xml:"ram:SpecifiedLegalOrganization,omitempty"`
	Contact           *TradeContact      `xml:"ram:DefinedTradeContact,omitempty"`
	Address           PostalAddress      `xml:"ram:PostalTradeAddress"`
	URI               *URICommunication  `xml:"ram:URIUniversalCommunication,omitempty"`
	TaxRegistrations  []TaxRegistration  `xml:"ram:SpecifiedTaxRegistration,omitempty"`
}

type LegalOrganization struct {
	ID SchemeID `xml:"ram:ID"`
}

type SchemeID struct {
	Scheme string `xml:"schemeID,attr"`
	Value  string `xml:",chardata"`
}

type TradeContact struct {
	PersonName string        `xml:"ram:PersonName,omitempty"`
	Telephone  *PhoneNumber  `xml:"ram:TelephoneUniversalCommunication,omitempty"`
	Email      *EmailAddress `xml:"ram:EmailURIUniversalCommunication,omitempty"`
}

type PhoneNumber struct {
	Number string `xml:"ram:CompleteNumber"`
}

type EmailAddress struct {
	URIID string `xml:"ram:URIID"`
}

type PostalAddress struct {
	Postcode  string `xml:"ram:PostcodeCode,omitempty"`
	LineOne   string `xml:"ram:LineOne,omitempty"`
	City      string `xml:"ram:CityName,omitempty"`
	CountryID string `xml:"ram:CountryID"`
}

type URICommunication struct {
	URIID SchemeID `xml:"ram:URIID"`
}

type TaxRegistration struct {
	ID SchemeID `xml:"ram:ID"`
}

type HeaderDelivery struct {
	Event *DeliveryEvent `xml:"ram:ActualDeliverySupplyChainEvent,omitempty"`
}

type DeliveryEvent struct {
	Occurrence DateTime `xml:"ram:OccurrenceDateTime"`
}

type HeaderSettlement struct {
	Currency     string          `xml:"ram:InvoiceCurrencyCode"`
	PaymentMeans PaymentMeans    `xml:"ram:SpecifiedTradeSettlementPaymentMeans"`
	Taxes        []TradeTax      `xml:"ram:ApplicableTradeTax"`
	PaymentTerms *PaymentTerms   `xml:"ram:SpecifiedTradePaymentTerms,omitempty"`
	Summation    HeaderSummation `xml:"ram:SpecifiedTradeSettlementHeaderMonetarySummation"`
}

type PaymentMeans struct {
	TypeCode string           `xml:"ram:TypeCode"`
	Account  *CreditorAccount `xml:"ram:PayeePartyCreditorFinancialAccount,omitempty"`
}

type CreditorAccount struct {
	IBAN string `xml:"ram:IBANID"`
}

type PaymentTerms struct {
	DueDate DateTime `xml:"ram:DueDateDateTime"`
}

type HeaderSummation struct {
	LineTotal  string         `xml:"ram:LineTotalAmount"`
	TaxBasis   string         `xml:"ram:TaxBasisTotalAmount"`
	TaxTotal   CurrencyAmount `xml:"ram:TaxTotalAmount"`
	GrandTotal string         `xml:"ram:GrandTotalAmount"`
	DuePayable string         `xml:"ram:DuePayableAmount"`
}

type CurrencyAmount struct {
	Currency string `xml:"currencyID,attr"`
	Value    string `xml:",chardata"`
}
