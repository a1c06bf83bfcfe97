package frontend

import "fmt"

type WebServiceStatus int

const (
	NoData WebServiceStatus = iota
	Error
	Loading
	Ready
)

var webServiceStatusNames = [...]string{"NoData", "Error", "Loading", "Ready"}

func (s WebServiceStatus) String() string {
	if s < 0 || int(s) >= len(webServiceStatusNames) {
		return fmt.Sprintf("WebServiceStatus(%d)", s)
	}
	return webServiceStatusNames[s]
}
