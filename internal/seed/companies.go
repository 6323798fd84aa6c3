package seed

type sampleCompany struct {
	Name    string
	Website string
}

var sampleCompanies = []sampleCompany{
	{"Abbott Philippines", "https://www.abbott.com/"},
	{"Accenture", "https://www.accenture.com/us-en"},
	{"Access Healthcare", "http://accesshealthcare.com/"},
	{"ADEC Healthcare", "https://www.healthcare.adec-innovations.com/"},
	{"Alorica", "http://alorica.com/"},
	{"Concentrix", "https://www.concentrix.com/"},
	{"Connext", "http://connextglobal.com/"},
	{"Lyric", "http://lyric.ai/"},
	{"Dynaquest", "https://dqtsi.com/"},
	{"Passelande", "http://www.passelande.com/"},
	{"eDat Services", "http://edataservices.com/"},
	{"EXL", "https://exlservice.com/"},
	{"Genfinity", "http://genfinity.net/"},
	{"Sagility", "http://sagilityhealth.com/"},
	{"Infinit-O", "http://infinit-o.com/"},
	{"IQVIA", "http://iqvia.com/"},
	{"Omega Healthcare", "http://omegahms.com/"},
	{"Optum", "http://optum.com/"},
	{"Pointwest", "https://pointwest.com.ph/"},
	{"Shearwater", "https://swhealth.com/"},
	{"Staywell", "http://staywellguam.com/"},
	{"Atos (Former Syntel)", "http://atos.net/"},
	{"Tenet Health", "http://tenethealth.com/"},
	{"TTSI", "http://ttsibpo.com/"},
	{"Vector Outsourcing", "https://www.vectoroutsourcing.com/"},
	{"VISAYA", "http://www.visayakpo.com/"},
	{"Wipro", "http://wipro.com/"},
	{"WorldSource", "http://worldsourceteam.com.ph/"},
	{"MedCode", "https://medcode.ph/"},
	{"Capstone", "http://www.capstone.ph/"},
	{"Inspiro", "http://inspiro.com/"},
	{"Conifer", "https://www.coniferhealth.com/"},
	{"LKN Strategies", "http://lknstrategies.us/"},
	{"Carelon", "http://www.carelonglobal.ph/"},
	{"Afni", "http://afni.com/"},
	{"Cliniqon", "http://cliniqon.com/"},
	{"AWS", "http://awsys-i.com/"},
	{"Cognizant", "http://cognizant.com/"},
	{"Nordic", "https://www.nordicglobal.com/"},
	{"DME Serve", "http://dmeserve.com/"},
	{"SMS Global", "https://smsgt.com/"},
	{"Teleperformance", "http://teleperformance.com/"},
	{"UST Global", "http://ust.com/"},
	{"Office Symmetry", "http://officesymmetry.com/"},
	{"Evolent Health", "https://www.evolent.com/"},
	{"MEDMETRIX", "http://med-metrix.com/"},
	{"Wagmi", "http://wagmisolutions.io/"},
	{"VXI Global", "http://vxi.com/"},
	{"Medical Abstract", "https://www.mdabstract.com/"},
	{"Ibex", "https://www.ibex.co/"},
	{"MedCheck", "https://www.medcheck.com.ph/"},
	{"Datamatics", "https://www.datamatics.com/"},
	{"Dexcom", "https://www.dexcom.com/"},
	{"Everise", "https://weareeverise.com/"},
	{"Microsourcing", "http://microsourcing.com/"},
	{"Savant Technologies", "http://savant.ph/"},
	{"iRHYTHM", "https://www.irhythmtech.com/us/en"},
	{"MiraMed", "https://www.coronishealth.com/"},
	{"Johnson & Johnson", "http://jnj.com/"},
	{"R1RCM", "https://www.r1rcm.com/"},
	{"Tata Consultancy", "https://www.tcs.com/"},
	{"Fresenius", "https://freseniusmedicalcare.com/en-us/"},
	{"Optimum TransSchool", "https://otsiinc.com/"},
	{"iReply Back Office Services", "http://www.ireplyservices.com/"},
}

var sampleCities = []string{
	"Manila", "Makati", "Bonifacio Global City", "Quezon City", "Pasig",
	"Ortigas", "Alabang", "Cebu", "Davao", "Clark",
}
