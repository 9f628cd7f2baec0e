package local

const (
	KeyAppTitle                 = "appTitle"
	KeyAppSubtitle              = "appSubtitle"
	KeyRecording                = "recording"
	KeyTranscribing             = "transcribing"
	KeyAnalyzing                = "analyzing"
	KeyTranscription            = "transcription"
	KeyDiagnosis                = "diagnosis"
	KeyExplanation              = "explanation"
	KeyDiseases                 = "diseases"
	KeyExams                    = "exams"
	KeyMedications              = "medications"
	KeyNewConsultation          = "newConsultation"
	KeyDisclaimer               = "disclaimer"
	KeyAudioNotSupported        = "audioNotSupported"
	KeyNoDataAvailable          = "noDataAvailable"
	KeyChatTitle                = "chatTitle"
	KeyChatWelcomeIntro         = "chatWelcomeIntro"
	KeyChatWelcomeDiagnosis     = "chatWelcomeDiagnosis"
	KeyChatWelcomeExams         = "chatWelcomeExams"
	KeyChatWelcomeMedications   = "chatWelcomeMedications"
	KeyChatWelcomeEnd           = "chatWelcomeEnd"
	KeyNoExamsRecommended       = "noExamsRecommended"
	KeyNoMedicationsRecommended = "noMedicationsRecommended"
	KeyChatError                = "chatError"
	KeyChatAvailable            = "chatAvailable"
	KeyHistoryTitle             = "historyTitle"
	KeyHistoryError             = "historyError"
	KeyNoConsultationsFound     = "noConsultationsFound"
	KeyConsultationsCount       = "consultationsCount"
	KeyLastConsultation         = "lastConsultation"
	KeyMostCommonDiagnoses      = "mostCommonDiagnoses"
	KeyDeleteError              = "deleteError"
	KeyNoAudioDetected          = "noAudioDetected"
	KeyProcessingError          = "processingError"
	KeyRecordingPermission      = "recordingPermission"
	KeyNoTranscript             = "noTranscript"
	KeyAnalysisInProgress       = "analysisInProgress"
	KeyChatBusy                 = "chatBusy"
	KeyNotRecording             = "notRecording"
	KeyAlreadyRecording         = "alreadyRecording"
	KeyConsultationNotFound     = "consultationNotFound"
	KeyGenericError             = "genericError"
	KeyHighConfidence           = "highConfidence"
	KeyMediumConfidence         = "mediumConfidence"
	KeyLowConfidence            = "lowConfidence"
	KeyKeySymptoms              = "keySymptoms"
	KeyDifferentialDiagnoses    = "differentialDiagnoses"
	KeyRecommendationBasis      = "recommendationBasis"
	KeyWordCount                = "wordCount"
	KeyWordCountOne             = "wordCountOne"
	KeyCharacterCount           = "characterCount"
	KeyCharacterCountOne        = "characterCountOne"
	KeyAssistant                = "assistant"
	KeyYou                      = "you"
	KeyHelp                     = "help"
	KeyUnknownCommand           = "unknownCommand"
	KeyNeedsConsultation        = "needsConsultation"
	KeyConsultationDeleted      = "consultationDeleted"
	KeyLanguageSelected         = "languageSelected"
	KeyRecordingCancelled       = "recordingCancelled"
)

var uiTranslations = map[string]TextSet{
	KeyAppTitle:                 NewSet("MedNote.IA", NewTrans(Eng, "MedNote.AI")),
	KeyAppSubtitle:              NewSet("Assistente Médico Inteligente", NewTrans(Eng, "Intelligent Medical Assistant")),
	KeyRecording:                NewSet("Gravando...", NewTrans(Eng, "Recording...")),
	KeyTranscribing:             NewSet("Transcrevendo áudio...", NewTrans(Eng, "Transcribing audio...")),
	KeyAnalyzing:                NewSet("Analisando sintomas...", NewTrans(Eng, "Analyzing symptoms...")),
	KeyTranscription:            NewSet("Transcrição", NewTrans(Eng, "Transcription")),
	KeyDiagnosis:                NewSet("Diagnóstico", NewTrans(Eng, "Diagnosis")),
	KeyExplanation:              NewSet("Explicação Detalhada", NewTrans(Eng, "Detailed Explanation")),
	KeyDiseases:                 NewSet("Possíveis Condições", NewTrans(Eng, "Possible Conditions")),
	KeyExams:                    NewSet("Exames Sugeridos", NewTrans(Eng, "Suggested Tests")),
	KeyMedications:              NewSet("Medicações", NewTrans(Eng, "Medications")),
	KeyNewConsultation:          NewSet("Nova Consulta", NewTrans(Eng, "New Consultation")),
	KeyDisclaimer: NewSet(
		"Este é um diagnóstico preliminar gerado por IA. Sempre consulte um médico para diagnóstico definitivo.",
		NewTrans(Eng, "This is a preliminary diagnosis generated by AI. Always consult a doctor for definitive diagnosis."),
	),
	KeyAudioNotSupported: NewSet(
		"Gravação de áudio não é suportada nesta plataforma",
		NewTrans(Eng, "Audio recording is not supported on this platform"),
	),
	KeyNoDataAvailable: NewSet("Nenhuma informação disponível", NewTrans(Eng, "No information available")),
	KeyChatTitle: NewSet(
		"Chat com IA - Dúvidas sobre sua consulta",
		NewTrans(Eng, "AI Chat - Questions about your consultation"),
	),
	KeyChatWelcomeIntro: NewSet(
		"Olá! Estou aqui para esclarecer suas dúvidas sobre a consulta realizada. Posso te ajudar com informações sobre:",
		NewTrans(Eng, "Hello! I'm here to clarify your questions about the consultation performed. I can help you with information about:"),
	),
	KeyChatWelcomeDiagnosis:     NewSet("Seu diagnóstico", NewTrans(Eng, "Your diagnosis")),
	KeyChatWelcomeExams:         NewSet("Exames recomendados", NewTrans(Eng, "Recommended tests")),
	KeyChatWelcomeMedications:   NewSet("Medicações sugeridas", NewTrans(Eng, "Suggested medications")),
	KeyChatWelcomeEnd:           NewSet("Fique à vontade para fazer suas perguntas!", NewTrans(Eng, "Feel free to ask your questions!")),
	KeyNoExamsRecommended:       NewSet("Nenhum exame específico recomendado", NewTrans(Eng, "No specific tests recommended")),
	KeyNoMedicationsRecommended: NewSet("Nenhuma medicação específica sugerida", NewTrans(Eng, "No specific medications suggested")),
	KeyChatError:                NewSet("Erro ao enviar mensagem", NewTrans(Eng, "Error sending message")),
	KeyChatAvailable: NewSet(
		"Chat disponível: use \"chat <pergunta>\"",
		NewTrans(Eng, "Chat available: use \"chat <question>\""),
	),
	KeyHistoryTitle:         NewSet("Histórico de Consultas", NewTrans(Eng, "Consultation History")),
	KeyHistoryError:         NewSet("Não foi possível carregar o histórico de consultas", NewTrans(Eng, "Could not load consultation history")),
	KeyNoConsultationsFound: NewSet("Nenhuma consulta encontrada", NewTrans(Eng, "No consultations found")),
	KeyConsultationsCount:   NewSet("Consultas", NewTrans(Eng, "Consultations")),
	KeyLastConsultation:     NewSet("Última consulta", NewTrans(Eng, "Last consultation")),
	KeyMostCommonDiagnoses:  NewSet("Diagnósticos mais comuns:", NewTrans(Eng, "Most common diagnoses:")),
	KeyDeleteError:          NewSet("Erro ao deletar consulta", NewTrans(Eng, "Error deleting consultation")),
	KeyNoAudioDetected: NewSet(
		"Nenhum áudio detectado. Tente gravar novamente.",
		NewTrans(Eng, "No audio detected. Please try recording again."),
	),
	KeyProcessingError: NewSet("Erro ao processar. Verifique sua conexão.", NewTrans(Eng, "Processing error. Check your connection.")),
	KeyRecordingPermission: NewSet(
		"Erro ao acessar microfone. Verifique as permissões.",
		NewTrans(Eng, "Error accessing microphone. Check permissions."),
	),
	KeyNoTranscript:         NewSet("Nenhuma transcrição disponível", NewTrans(Eng, "No transcript available")),
	KeyAnalysisInProgress:   NewSet("Diagnóstico já está sendo processado...", NewTrans(Eng, "Diagnosis is already being processed...")),
	KeyChatBusy:             NewSet("Aguarde a resposta anterior", NewTrans(Eng, "Wait for the previous reply")),
	KeyNotRecording:         NewSet("Gravação não foi iniciada", NewTrans(Eng, "Recording was not started")),
	KeyAlreadyRecording:     NewSet("Gravação já está em andamento", NewTrans(Eng, "Recording is already in progress")),
	KeyConsultationNotFound: NewSet("Consulta não encontrada", NewTrans(Eng, "Consultation not found")),
	KeyGenericError:         NewSet("Ocorreu um erro inesperado. Tente novamente.", NewTrans(Eng, "An unexpected error occurred. Try again.")),
	KeyHighConfidence:       NewSet("Alta Confiança", NewTrans(Eng, "High Confidence")),
	KeyMediumConfidence:     NewSet("Confiança Média", NewTrans(Eng, "Medium Confidence")),
	KeyLowConfidence:        NewSet("Baixa Confiança", NewTrans(Eng, "Low Confidence")),
	KeyKeySymptoms:          NewSet("Sintomas principais", NewTrans(Eng, "Key symptoms")),
	KeyDifferentialDiagnoses: NewSet("Diagnósticos diferenciais", NewTrans(Eng, "Differential diagnoses")),
	KeyRecommendationBasis:   NewSet("Base da recomendação", NewTrans(Eng, "Recommendation basis")),
	KeyWordCount:             NewSet("%d palavras", NewTrans(Eng, "%d words")),
	KeyWordCountOne:          NewSet("%d palavra", NewTrans(Eng, "%d word")),
	KeyCharacterCount:        NewSet("%d caracteres", NewTrans(Eng, "%d characters")),
	KeyCharacterCountOne:     NewSet("%d caractere", NewTrans(Eng, "%d character")),
	KeyAssistant:             NewSet("Assistente", NewTrans(Eng, "Assistant")),
	KeyYou:                   NewSet("Você", NewTrans(Eng, "You")),
	KeyHelp: NewSet(
		"Comandos: gravar, parar, cancelar, diagnosticar <texto>, chat <pergunta>, historico, ver <id>, apagar <id>, estatisticas, idioma, nova, ajuda, sair",
		NewTrans(Eng, "Commands: record, stop, cancel, diagnose <text>, chat <question>, history, show <id>, delete <id>, stats, language, new, help, quit"),
	),
	KeyUnknownCommand:      NewSet("Comando desconhecido. Digite \"ajuda\".", NewTrans(Eng, "Unknown command. Type \"help\".")),
	KeyNeedsConsultation:   NewSet("Faça uma consulta antes de usar o chat", NewTrans(Eng, "Run a consultation before using the chat")),
	KeyConsultationDeleted: NewSet("Consulta removida", NewTrans(Eng, "Consultation deleted")),
	KeyLanguageSelected:    NewSet("Idioma: Português", NewTrans(Eng, "Language: English")),
	KeyRecordingCancelled:  NewSet("Gravação cancelada", NewTrans(Eng, "Recording cancelled")),
}
