package builder

import (
	"strconv"

	"github.com/beevik/etree"

	"github.com/upnpforge/upnpstack/model"
	"github.com/upnpforge/upnpstack/types"
)

// BuildRootDevice parses a full device description document (the
// <root>...<device> tree) and returns the instantiated, validated root
// Device. It fetches and parses every declared service's SCPD, and
// fetches every declared icon's bytes (fatal in strict mode, dropped with
// metadata kept otherwise).
func BuildRootDevice(rawDescription []byte, opts Options) (*model.Device, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawDescription); err != nil {
		return nil, parseErr("malformed XML: %v", err)
	}
	root := doc.SelectElement("root")
	if root == nil {
		return nil, parseErr("missing <root> element")
	}

	if err := validateSpecVersion(root); err != nil {
		return nil, err
	}

	deviceElem := root.SelectElement("device")
	if deviceElem == nil {
		return nil, parseErr("missing <device> element")
	}

	device, err := parseDevice(deviceElem, opts)
	if err != nil {
		return nil, err
	}
	device.SetRawDescription(string(rawDescription))

	if err := device.ValidateUnique(); err != nil {
		return nil, validationErr(err)
	}

	if opts.Immutable {
		device.SetImmutable()
	}

	return device, nil
}

func validateSpecVersion(root *etree.Element) error {
	sv := root.SelectElement("specVersion")
	if sv == nil {
		return parseErr("missing <specVersion>")
	}
	major := elemText(sv, "major")
	minor := elemText(sv, "minor")
	if major != "1" {
		return parseErr("unsupported specVersion major %q", major)
	}
	if minor != "0" && minor != "1" {
		return parseErr("unsupported specVersion minor %q", minor)
	}
	return nil
}

func elemText(parent *etree.Element, tag string) string {
	if e := parent.SelectElement(tag); e != nil {
		return e.Text()
	}
	return ""
}

func parseDevice(elem *etree.Element, opts Options) (*model.Device, error) {
	deviceTypeStr := elemText(elem, "deviceType")
	friendlyName := elemText(elem, "friendlyName")
	manufacturer := elemText(elem, "manufacturer")
	modelName := elemText(elem, "modelName")
	udnStr := elemText(elem, "UDN")

	if deviceTypeStr == "" || friendlyName == "" || manufacturer == "" || modelName == "" || udnStr == "" {
		return nil, parseErr("device %q missing required field(s)", friendlyName)
	}

	deviceType, err := types.ParseResourceType(deviceTypeStr)
	if err != nil {
		return nil, parseErr("device %q: invalid deviceType: %v", friendlyName, err)
	}
	udn, err := types.ParseUDN(udnStr)
	if err != nil {
		return nil, parseErr("device %q: invalid UDN: %v", friendlyName, err)
	}

	info := model.DeviceInfo{
		DeviceType:       deviceType,
		UDN:              udn,
		FriendlyName:     friendlyName,
		Manufacturer:     manufacturer,
		ManufacturerURL:  elemText(elem, "manufacturerURL"),
		ModelDescription: elemText(elem, "modelDescription"),
		ModelName:        modelName,
		ModelNumber:      elemText(elem, "modelNumber"),
		ModelURL:         elemText(elem, "modelURL"),
		SerialNumber:     elemText(elem, "serialNumber"),
		UPC:              elemText(elem, "UPC"),
		PresentationURL:  elemText(elem, "presentationURL"),
	}

	device, err := opts.createDevice(info)
	if err != nil {
		return nil, &BuildError{Kind: ErrCreator, Msg: "device creator failed", Err: err}
	}

	if serviceList := elem.SelectElement("serviceList"); serviceList != nil {
		for _, se := range serviceList.SelectElements("service") {
			svc, err := parseService(se, opts)
			if err != nil {
				return nil, err
			}
			if err := device.AddService(svc); err != nil {
				return nil, validationErr(err)
			}
		}
	}

	if err := parseIcons(elem, device, opts); err != nil {
		return nil, err
	}

	if deviceList := elem.SelectElement("deviceList"); deviceList != nil {
		for _, de := range deviceList.SelectElements("device") {
			child, err := parseDevice(de, opts)
			if err != nil {
				return nil, err
			}
			if err := device.AddEmbeddedDevice(child); err != nil {
				return nil, validationErr(err)
			}
		}
	}

	return device, nil
}

// parseIcons fetches every declared icon and attaches it to device so the
// host can later serve it from "GET <iconUrl>" (spec §4.4). A strict build
// fails on an unreachable icon; a lenient build drops just that icon's
// bytes (its metadata is still attached, without Data) and logs nothing
// here since the caller decides how to surface build warnings.
func parseIcons(elem *etree.Element, device *model.Device, opts Options) error {
	iconList := elem.SelectElement("iconList")
	if iconList == nil {
		return nil
	}
	seen := make(map[string]bool)
	for _, ie := range iconList.SelectElements("icon") {
		url := elemText(ie, "url")
		if url == "" {
			continue
		}
		if seen[url] {
			return validationErr(parseErr("duplicate icon url %q", url))
		}
		seen[url] = true

		icon := &model.Icon{
			Mimetype: elemText(ie, "mimetype"),
			Width:    atoiOrZero(elemText(ie, "width")),
			Height:   atoiOrZero(elemText(ie, "height")),
			Depth:    atoiOrZero(elemText(ie, "depth")),
			URL:      url,
		}

		if opts.Fetcher != nil {
			data, err := opts.Fetcher.Fetch(url)
			if err != nil {
				if opts.Strict {
					return fetchErr(err, "icon %q unreachable", url)
				}
			} else {
				icon.Data = data
			}
		}

		if err := device.AddIcon(icon); err != nil {
			return validationErr(err)
		}
	}
	return nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func parseService(elem *etree.Element, opts Options) (*model.Service, error) {
	serviceIDStr := elemText(elem, "serviceId")
	serviceTypeStr := elemText(elem, "serviceType")
	scpdURL := elemText(elem, "SCPDURL")
	controlURL := elemText(elem, "controlURL")
	eventSubURL := elemText(elem, "eventSubURL")

	if serviceIDStr == "" || serviceTypeStr == "" || scpdURL == "" {
		return nil, parseErr("service missing required field(s)")
	}

	serviceID, err := types.ParseServiceID(serviceIDStr)
	if err != nil {
		return nil, parseErr("invalid serviceId %q: %v", serviceIDStr, err)
	}
	serviceType, err := types.ParseResourceType(serviceTypeStr)
	if err != nil {
		return nil, parseErr("invalid serviceType %q: %v", serviceTypeStr, err)
	}

	svc := model.NewService(serviceID, serviceType, scpdURL, controlURL, eventSubURL)

	if opts.Fetcher == nil {
		return nil, fetchErr(nil, "no fetcher configured for SCPD %q", scpdURL)
	}
	scpdBytes, err := opts.Fetcher.Fetch(scpdURL)
	if err != nil {
		return nil, fetchErr(err, "SCPD %q unreachable", scpdURL)
	}

	if err := parseSCPD(scpdBytes, svc); err != nil {
		return nil, err
	}
	svc.SetRawSCPD(string(scpdBytes))

	return svc, nil
}
