package model

import (
	"strconv"

	"github.com/beevik/etree"
)

// ToXMLElement renders this icon's entry in the owning device's
// <iconList> (spec §4.2): metadata only, never the image bytes.
func (i *Icon) ToXMLElement() *etree.Element {
	e := etree.NewElement("icon")
	e.CreateElement("mimetype").SetText(i.Mimetype)
	e.CreateElement("width").SetText(strconv.Itoa(i.Width))
	e.CreateElement("height").SetText(strconv.Itoa(i.Height))
	e.CreateElement("depth").SetText(strconv.Itoa(i.Depth))
	e.CreateElement("url").SetText(i.URL)
	return e
}

// ToXMLElement renders this service's entry in the owning device's
// <serviceList> (spec §4.2): identity and URLs only, not the SCPD body.
func (s *Service) ToXMLElement() *etree.Element {
	e := etree.NewElement("service")
	e.CreateElement("serviceType").SetText(s.serviceType.String())
	e.CreateElement("serviceId").SetText(s.serviceID.String())
	e.CreateElement("SCPDURL").SetText(s.scpdURL)
	e.CreateElement("controlURL").SetText(s.controlURL)
	e.CreateElement("eventSubURL").SetText(s.eventSubURL)
	return e
}

// ToXMLElement renders this device's <device> element, including its
// nested <serviceList> and <deviceList> (spec §4.2).
func (d *Device) ToXMLElement() *etree.Element {
	e := etree.NewElement("device")
	e.CreateElement("deviceType").SetText(d.info.DeviceType.String())
	e.CreateElement("friendlyName").SetText(d.info.FriendlyName)
	e.CreateElement("manufacturer").SetText(d.info.Manufacturer)
	setIfNonEmpty(e, "manufacturerURL", d.info.ManufacturerURL)
	setIfNonEmpty(e, "modelDescription", d.info.ModelDescription)
	e.CreateElement("modelName").SetText(d.info.ModelName)
	setIfNonEmpty(e, "modelNumber", d.info.ModelNumber)
	setIfNonEmpty(e, "modelURL", d.info.ModelURL)
	setIfNonEmpty(e, "serialNumber", d.info.SerialNumber)
	e.CreateElement("UDN").SetText(d.info.UDN.String())
	setIfNonEmpty(e, "UPC", d.info.UPC)
	setIfNonEmpty(e, "presentationURL", d.info.PresentationURL)

	icons := d.icons.Slice()
	if len(icons) > 0 {
		iconList := e.CreateElement("iconList")
		for _, icon := range icons {
			iconList.AddChild(icon.ToXMLElement())
		}
	}

	services := d.services.Slice()
	if len(services) > 0 {
		svList := e.CreateElement("serviceList")
		for _, s := range services {
			svList.AddChild(s.ToXMLElement())
		}
	}

	embedded := d.embedded.Slice()
	if len(embedded) > 0 {
		devList := e.CreateElement("deviceList")
		for _, child := range embedded {
			devList.AddChild(child.ToXMLElement())
		}
	}

	return e
}

func setIfNonEmpty(parent *etree.Element, tag, value string) {
	if value != "" {
		parent.CreateElement(tag).SetText(value)
	}
}

// ToDeviceDescriptionDocument renders the full "<root>" description
// document for this device acting as the root device (spec §4.2).
func (d *Device) ToDeviceDescriptionDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)

	root := doc.CreateElement("root")
	root.CreateAttr("xmlns", "urn:schemas-upnp-org:device-1-0")
	spec := root.CreateElement("specVersion")
	spec.CreateElement("major").SetText("1")
	spec.CreateElement("minor").SetText("1")

	root.AddChild(d.ToXMLElement())
	return doc
}
