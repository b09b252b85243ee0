package location

// defaultLocations is the embedded coordinate table covering the major
// forecast points. IDs are stable and referenced by the forecast cache
// file naming scheme.
var defaultLocations = []Location{
	{ID: "011000", Name: "Sapporo", Prefecture: "Hokkaido", Region: "Hokkaido", Latitude: 43.0618, Longitude: 141.3545},
	{ID: "012010", Name: "Asahikawa", Prefecture: "Hokkaido", Region: "Hokkaido", Latitude: 43.7706, Longitude: 142.3650},
	{ID: "020010", Name: "Aomori", Prefecture: "Aomori", Region: "Tohoku", Latitude: 40.8244, Longitude: 140.7400},
	{ID: "040010", Name: "Sendai", Prefecture: "Miyagi", Region: "Tohoku", Latitude: 38.2682, Longitude: 140.8694},
	{ID: "130010", Name: "Tokyo", Prefecture: "Tokyo", Region: "Kanto", Latitude: 35.6812, Longitude: 139.7671},
	{ID: "130020", Name: "Shinagawa", Prefecture: "Tokyo", Region: "Kanto", Latitude: 35.6284, Longitude: 139.7387},
	{ID: "130030", Name: "Hachioji", Prefecture: "Tokyo", Region: "Kanto", Latitude: 35.6664, Longitude: 139.3160},
	{ID: "140010", Name: "Yokohama", Prefecture: "Kanagawa", Region: "Kanto", Latitude: 35.4437, Longitude: 139.6380},
	{ID: "110010", Name: "Saitama", Prefecture: "Saitama", Region: "Kanto", Latitude: 35.8617, Longitude: 139.6455},
	{ID: "120010", Name: "Chiba", Prefecture: "Chiba", Region: "Kanto", Latitude: 35.6073, Longitude: 140.1063},
	{ID: "150010", Name: "Niigata", Prefecture: "Niigata", Region: "Hokuriku", Latitude: 37.9161, Longitude: 139.0364},
	{ID: "170010", Name: "Kanazawa", Prefecture: "Ishikawa", Region: "Hokuriku", Latitude: 36.5613, Longitude: 136.6562},
	{ID: "200010", Name: "Nagano", Prefecture: "Nagano", Region: "Chubu", Latitude: 36.6513, Longitude: 138.1810},
	{ID: "230010", Name: "Nagoya", Prefecture: "Aichi", Region: "Chubu", Latitude: 35.1815, Longitude: 136.9066},
	{ID: "220010", Name: "Shizuoka", Prefecture: "Shizuoka", Region: "Chubu", Latitude: 34.9756, Longitude: 138.3828},
	{ID: "260010", Name: "Kyoto", Prefecture: "Kyoto", Region: "Kinki", Latitude: 35.0116, Longitude: 135.7681},
	{ID: "270000", Name: "Osaka", Prefecture: "Osaka", Region: "Kinki", Latitude: 34.6937, Longitude: 135.5023},
	{ID: "280010", Name: "Kobe", Prefecture: "Hyogo", Region: "Kinki", Latitude: 34.6901, Longitude: 135.1956},
	{ID: "290010", Name: "Nara", Prefecture: "Nara", Region: "Kinki", Latitude: 34.6851, Longitude: 135.8050},
	{ID: "340010", Name: "Hiroshima", Prefecture: "Hiroshima", Region: "Chugoku", Latitude: 34.3853, Longitude: 132.4553},
	{ID: "330010", Name: "Okayama", Prefecture: "Okayama", Region: "Chugoku", Latitude: 34.6618, Longitude: 133.9350},
	{ID: "370000", Name: "Takamatsu", Prefecture: "Kagawa", Region: "Shikoku", Latitude: 34.3428, Longitude: 134.0466},
	{ID: "390010", Name: "Kochi", Prefecture: "Kochi", Region: "Shikoku", Latitude: 33.5597, Longitude: 133.5311},
	{ID: "400010", Name: "Fukuoka", Prefecture: "Fukuoka", Region: "Kyushu", Latitude: 33.5902, Longitude: 130.4017},
	{ID: "430010", Name: "Kumamoto", Prefecture: "Kumamoto", Region: "Kyushu", Latitude: 32.8031, Longitude: 130.7079},
	{ID: "460010", Name: "Kagoshima", Prefecture: "Kagoshima", Region: "Kyushu", Latitude: 31.5966, Longitude: 130.5571},
	{ID: "471010", Name: "Naha", Prefecture: "Okinawa", Region: "Okinawa", Latitude: 26.2124, Longitude: 127.6809},
	{ID: "471020", Name: "Ishigaki", Prefecture: "Okinawa", Region: "Okinawa", Latitude: 24.3448, Longitude: 124.1572},
}
