// AngelaMos | 2026
// dto.go

package commerce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const UnknownProductName = "Unknown"

// ProductAccess is one purchase entitlement. Fields other than product_id
// are kept verbatim in Raw.
type ProductAccess struct {
	ProductID int64
	Raw       json.RawMessage
}

var errNonIntegralID = errors.New("product_id is not an integer")

// UnmarshalJSON accepts any integral JSON number for product_id, so 42,
// 42.0 and 4.2e1 all decode to 42.
func (a *ProductAccess) UnmarshalJSON(data []byte) error {
	var fields struct {
		ProductID json.RawMessage `json:"product_id"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	id, err := integralID(fields.ProductID)
	if err != nil {
		return err
	}

	a.ProductID = id
	a.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func integralID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	if firstByte(raw) == '"' {
		return 0, fmt.Errorf("%w: %s", errNonIntegralID, raw)
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode product_id: %w", err)
	}
	if id, err := n.Int64(); err == nil {
		return id, nil
	}

	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("%w: %s", errNonIntegralID, raw)
	}
	return int64(f), nil
}

func (a ProductAccess) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	return json.Marshal(struct {
		ProductID int64 `json:"product_id"`
	}{a.ProductID})
}

// AccessList decodes either a bare JSON array of accesses or an object
// wrapping one under "data". Any other shape decodes to an empty list, as
// do array elements that are not access objects.
type AccessList []ProductAccess

func (l *AccessList) UnmarshalJSON(data []byte) error {
	*l, _ = decodeAccesses(data)
	return nil
}

// decodeAccesses also reports how many array elements were dropped.
func decodeAccesses(data []byte) (AccessList, int) {
	items := accessItems(data)
	out := make(AccessList, 0, len(items))
	skipped := 0
	for _, item := range items {
		if firstByte(item) != '{' {
			skipped++
			continue
		}
		var access ProductAccess
		if err := json.Unmarshal(item, &access); err != nil {
			skipped++
			continue
		}
		out = append(out, access)
	}
	return out, skipped
}

func accessItems(data []byte) []json.RawMessage {
	var items []json.RawMessage

	switch firstByte(data) {
	case '[':
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
	case '{':
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil
		}
		if firstByte(wrapped.Data) != '[' {
			return nil
		}
		if err := json.Unmarshal(wrapped.Data, &items); err != nil {
			return nil
		}
	}

	return items
}

// Product holds the two places a product payload may carry its name:
// {"data":{"name":...}} and {"name":...}.
type Product struct {
	DataName string
	Name     string
}

// DisplayName prefers data.name, then name. Empty names fall through to
// UnknownProductName.
func (p *Product) DisplayName() string {
	if p == nil {
		return UnknownProductName
	}
	if p.DataName != "" {
		return p.DataName
	}
	if p.Name != "" {
		return p.Name
	}
	return UnknownProductName
}

// decodeProduct never fails: bodies that are not a product object yield an
// empty Product, whose DisplayName is UnknownProductName.
func decodeProduct(resp *Response) *Product {
	product := &Product{}
	if !resp.JSON || firstByte(resp.Body) != '{' {
		return product
	}

	var lenient struct {
		Data json.RawMessage `json:"data"`
		Name json.RawMessage `json:"name"`
	}
	if err := json.Unmarshal(resp.Body, &lenient); err != nil {
		return product
	}

	if firstByte(lenient.Data) == '{' {
		var data struct {
			Name json.RawMessage `json:"name"`
		}
		if err := json.Unmarshal(lenient.Data, &data); err == nil {
			product.DataName = stringValue(data.Name)
		}
	}
	product.Name = stringValue(lenient.Name)

	return product
}

// decodeUserID reads the commerce user id from a JSON string, a JSON
// number, {"data": <id>} / {"id": <id>}, or a plain-text body.
func decodeUserID(resp *Response) string {
	if !resp.JSON {
		return strings.TrimSpace(string(resp.Body))
	}

	if firstByte(resp.Body) == '{' {
		var wrapped struct {
			Data json.RawMessage `json:"data"`
			ID   json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(resp.Body, &wrapped); err != nil {
			return ""
		}
		if id := scalarValue(wrapped.Data); id != "" {
			return id
		}
		return scalarValue(wrapped.ID)
	}

	return scalarValue(resp.Body)
}

func stringValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func scalarValue(raw json.RawMessage) string {
	switch firstByte(raw) {
	case '"':
		return strings.TrimSpace(stringValue(raw))
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	default:
		return ""
	}
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
